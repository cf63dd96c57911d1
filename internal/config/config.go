package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	// The four collaborator endpoints, set once at startup and read-only
	// afterward.
	CustodyURL string
	PoolURL    string
	OracleURL  string
	TokenURL   string

	// PoolAccount is the pool's ledger account id (32-char hex):
	// repayment destination and liquidation beneficiary.
	PoolAccount string

	CollateralRatioBps     int
	MissedPaymentThreshold int
	PaymentIntervalDays    int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "nftlend"),
		MySQLUser: getenv("MYSQL_USER", "nftlend"),
		MySQLPass: getenv("MYSQL_PASS", "nftlend"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getenvInt("REDIS_DB", 0),
		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		CustodyURL: getenv("CUSTODY_URL", "http://custody:8081"),
		PoolURL:    getenv("POOL_URL", "http://pool:8082"),
		OracleURL:  getenv("ORACLE_URL", "http://oracle:8083"),
		TokenURL:   getenv("TOKEN_URL", "http://token:8084"),

		PoolAccount: getenv("POOL_ACCOUNT", ""),

		// 150% minimum collateralization, default 3 missed periods to
		// default, 30-day month-equivalent.
		CollateralRatioBps:     getenvInt("COLLATERAL_RATIO_BPS", 15000),
		MissedPaymentThreshold: getenvInt("MISSED_PAYMENT_THRESHOLD", 3),
		PaymentIntervalDays:    getenvInt("PAYMENT_INTERVAL_DAYS", 30),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	for name, raw := range map[string]string{
		"CUSTODY_URL": c.CustodyURL,
		"POOL_URL":    c.PoolURL,
		"ORACLE_URL":  c.OracleURL,
		"TOKEN_URL":   c.TokenURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q", name, raw)
		}
	}
	if len(c.PoolAccount) != 32 {
		return errors.New("POOL_ACCOUNT must be a 32-char hex account id")
	}
	if c.CollateralRatioBps < 10000 {
		return fmt.Errorf("COLLATERAL_RATIO_BPS %d below 10000 would lend above collateral value", c.CollateralRatioBps)
	}
	if c.MissedPaymentThreshold < 1 {
		return errors.New("MISSED_PAYMENT_THRESHOLD must be at least 1")
	}
	if c.PaymentIntervalDays < 1 {
		return errors.New("PAYMENT_INTERVAL_DAYS must be at least 1")
	}
	return nil
}

func (c *Config) PaymentInterval() time.Duration {
	return time.Duration(c.PaymentIntervalDays) * 24 * time.Hour
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
