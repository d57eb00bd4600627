package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

const EnvPrefix = "GATELOG"

// Keys, as used with viper.  The environment variable is EnvPrefix + "_" +
// upper-cased key.
const (
	KeyEnv              = "env"
	KeyHTTPAddr         = "http_addr"
	KeyGRPCAddr         = "grpc_addr"
	KeyStore            = "store"
	KeyDBPath           = "db_path"
	KeyRedisAddr        = "redis_addr"
	KeyLedgerKey        = "ledger_key"
	KeyExportDir        = "export_dir"
	KeyReportPrefix     = "report_prefix"
	KeyPhotoDelayMS     = "photo_delay_ms"
	KeyTimezone         = "timezone"
	KeyOperators        = "operators"
	KeyReminderInterval = "reminder_interval_minutes"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Env string // "dev" | "prod"

	HTTPAddr string
	GRPCAddr string // empty disables the gRPC health endpoint

	// Ledger storage
	Store     string // "sqlite" | "memory" | "redis"
	DBPath    string // e.g. "./data/gatelog.db"
	RedisAddr string
	LedgerKey string

	// Export
	ExportDir    string
	ReportPrefix string
	PhotoDelay   time.Duration
	Location     *time.Location

	Operators []types.User

	ReminderIntervalMinutes int // 0 = off

	// Warnings lists values that were invalid and replaced by defaults.
	Warnings []string
}

var defaults = map[string]any{
	KeyEnv:              "dev",
	KeyHTTPAddr:         ":8080",
	KeyGRPCAddr:         ":9090",
	KeyStore:            StoreSQLite,
	KeyDBPath:           "./data/gatelog.db",
	KeyRedisAddr:        "localhost:6379",
	KeyLedgerKey:        "uag_records",
	KeyExportDir:        "./exports",
	KeyReportPrefix:     "UAG_RELATORIO",
	KeyPhotoDelayMS:     300,
	KeyTimezone:         "Local",
	KeyOperators:        "admin:Administrador:ADMIN",
	KeyReminderInterval: 30,
}

// NewViper returns a viper instance with the defaults and GATELOG_* env
// binding in place.  Callers may bind flags or read a config file on top.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

// FromEnv reads the configuration from GATELOG_* environment variables.
func FromEnv() Config {
	return Load(NewViper())
}

// Load resolves a Config from v.  Invalid values fall back to their
// defaults and are reported in Config.Warnings.
func Load(v *viper.Viper) Config {
	var warns []string
	warn := func(format string, args ...any) {
		warns = append(warns, fmt.Sprintf(format, args...))
	}

	env := strings.ToLower(stringOr(v, KeyEnv))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		warn("unknown env %q, using dev", env)
		env = "dev"
	}

	st := strings.ToLower(stringOr(v, KeyStore))
	switch st {
	case StoreSQLite, StoreMemory, StoreRedis:
	default:
		warn("unknown store %q, using %s", st, StoreSQLite)
		st = StoreSQLite
	}

	delayMS := nonNegativeInt(v, KeyPhotoDelayMS, warn)
	reminder := nonNegativeInt(v, KeyReminderInterval, warn)

	tz := stringOr(v, KeyTimezone)
	loc, err := loadLocation(tz)
	if err != nil {
		warn("timezone %q: %v, using Local", tz, err)
		loc = time.Local
	}

	ops, err := ParseOperators(stringOr(v, KeyOperators))
	if err != nil || len(ops) == 0 {
		if err == nil {
			err = fmt.Errorf("no operators")
		}
		warn("operators: %v, using default", err)
		ops, _ = ParseOperators(defaults[KeyOperators].(string))
	}

	return Config{
		Env:      env,
		HTTPAddr: stringOr(v, KeyHTTPAddr),
		GRPCAddr: strings.TrimSpace(v.GetString(KeyGRPCAddr)),

		Store:     st,
		DBPath:    stringOr(v, KeyDBPath),
		RedisAddr: stringOr(v, KeyRedisAddr),
		LedgerKey: stringOr(v, KeyLedgerKey),

		ExportDir:    stringOr(v, KeyExportDir),
		ReportPrefix: stringOr(v, KeyReportPrefix),
		PhotoDelay:   time.Duration(delayMS) * time.Millisecond,
		Location:     loc,

		Operators: ops,

		ReminderIntervalMinutes: reminder,

		Warnings: warns,
	}
}

// ParseOperators reads a comma-separated list of id[:name[:role]] entries.
func ParseOperators(s string) ([]types.User, error) {
	var out []types.User
	seen := map[string]bool{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		u := types.User{ID: strings.TrimSpace(parts[0]), Role: types.RoleOperator}
		if u.ID == "" {
			return nil, fmt.Errorf("empty operator id in %q", entry)
		}
		if seen[u.ID] {
			return nil, fmt.Errorf("duplicate operator id %q", u.ID)
		}
		seen[u.ID] = true

		u.Name = u.ID
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			u.Name = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			role := types.Role(strings.ToUpper(strings.TrimSpace(parts[2])))
			if !role.Valid() {
				return nil, fmt.Errorf("operator %q: unknown role %q", u.ID, parts[2])
			}
			u.Role = role
		}
		out = append(out, u)
	}
	return out, nil
}

func loadLocation(name string) (*time.Location, error) {
	if strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// stringOr returns the trimmed value of key, or its default when blank.
func stringOr(v *viper.Viper, key string) string {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		if d, ok := defaults[key].(string); ok {
			return d
		}
	}
	return s
}

func nonNegativeInt(v *viper.Viper, key string, warn func(string, ...any)) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return defaults[key].(int)
	}
	n := v.GetInt(key)
	if n < 0 || (n == 0 && raw != "0") {
		warn("%s=%q is not a non-negative integer, using default", key, raw)
		return defaults[key].(int)
	}
	return n
}
