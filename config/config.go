package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultSlippagePct    uint64 = 5
	defaultMaxSlippagePct uint64 = 50
)

// Config es la configuración completa del cliente.
type Config struct {
	Chain   ChainConfig   `yaml:"chain"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Trade   TradeConfig   `yaml:"trade"`
	Auction AuctionConfig `yaml:"auction"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ChainConfig apunta al nodo LCD y al contrato del settlement engine.
type ChainConfig struct {
	LCDBase         string  `yaml:"lcd_base"`
	ChainID         string  `yaml:"chain_id"`
	ContractAddress string  `yaml:"contract_address"`
	Denom           string  `yaml:"denom"`
	GasLimit        uint64  `yaml:"gas_limit"`
	GasPriceMicro   float64 `yaml:"gas_price_micro"` // micro-denom por unidad de gas
}

// WalletConfig identifica la cuenta que firma. Sin private_key solo hay lecturas.
type WalletConfig struct {
	Address    string `yaml:"address"`
	PrivateKey string `yaml:"private_key"` // hex secp256k1; mejor por WALLET_PRIVATE_KEY
}

// TradeConfig controla cotizaciones y envíos.
type TradeConfig struct {
	QuoteTimeoutSeconds  int     `yaml:"quote_timeout_seconds"`
	SubmitTimeoutSeconds int     `yaml:"submit_timeout_seconds"`
	QuoteTTLSeconds      int     `yaml:"quote_ttl_seconds"`
	DefaultSlippagePct   *uint64 `yaml:"default_slippage_pct"` // nil = sin configurar; 0 es válido
	MaxSlippagePct       *uint64 `yaml:"max_slippage_pct"`
	MaxShares            uint64  `yaml:"max_shares"`
}

// AuctionConfig controla la cuenta atrás.
type AuctionConfig struct {
	DurationHours   int `yaml:"duration_hours"`
	CountdownTickMS int `yaml:"countdown_tick_ms"`
}

// StorageConfig controla dónde se guarda el journal de envíos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben al YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse aplica overrides y defaults sobre un YAML ya leído y lo valida.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza combinaciones que harían fallar al arrancar.
func (c *Config) Validate() error {
	var errs []error
	if c.Chain.ContractAddress == "" {
		errs = append(errs, errors.New("chain.contract_address is required"))
	}
	if c.Wallet.PrivateKey != "" && c.Wallet.Address == "" {
		errs = append(errs, errors.New("wallet.address is required when wallet.private_key is set"))
	}
	if c.DefaultSlippage() > c.MaxSlippage() {
		errs = append(errs, fmt.Errorf("trade.default_slippage_pct %d above max_slippage_pct %d",
			c.DefaultSlippage(), c.MaxSlippage()))
	}
	if c.MaxSlippage() > 100 {
		errs = append(errs, fmt.Errorf("trade.max_slippage_pct %d above 100", c.MaxSlippage()))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q unknown", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q unknown", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// CanSign dice si hay clave para firmar transacciones.
func (c *Config) CanSign() bool {
	return c.Wallet.PrivateKey != ""
}

// MaxSlippage es el slippage máximo aceptado en quick trades, en %.
func (c *Config) MaxSlippage() uint64 {
	if c.Trade.MaxSlippagePct == nil {
		return defaultMaxSlippagePct
	}
	return *c.Trade.MaxSlippagePct
}

// DefaultSlippage es la tolerancia que se usa si el comando no pasa -slippage.
func (c *Config) DefaultSlippage() uint64 {
	if c.Trade.DefaultSlippagePct == nil {
		return min(defaultSlippagePct, c.MaxSlippage())
	}
	return *c.Trade.DefaultSlippagePct
}

func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Trade.QuoteTimeoutSeconds) * time.Second
}

func (c *Config) SubmitTimeout() time.Duration {
	return time.Duration(c.Trade.SubmitTimeoutSeconds) * time.Second
}

func (c *Config) QuoteTTL() time.Duration {
	return time.Duration(c.Trade.QuoteTTLSeconds) * time.Second
}

// AuctionWindow es la duración completa de una subasta, para el % restante.
func (c *Config) AuctionWindow() time.Duration {
	return time.Duration(c.Auction.DurationHours) * time.Hour
}

func (c *Config) CountdownTick() time.Duration {
	return time.Duration(c.Auction.CountdownTickMS) * time.Millisecond
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LCD_BASE"); v != "" {
		cfg.Chain.LCDBase = v
	}
	if v := os.Getenv("CONTRACT_ADDRESS"); v != "" {
		cfg.Chain.ContractAddress = v
	}
	if v := os.Getenv("WALLET_ADDRESS"); v != "" {
		cfg.Wallet.Address = v
	}
	if v := os.Getenv("WALLET_PRIVATE_KEY"); v != "" {
		cfg.Wallet.PrivateKey = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Chain.LCDBase == "" {
		cfg.Chain.LCDBase = "https://rest.cosmos.directory/chihuahua"
	}
	cfg.Chain.LCDBase = strings.TrimRight(cfg.Chain.LCDBase, "/")
	if cfg.Chain.ChainID == "" {
		cfg.Chain.ChainID = "chihuahua-1"
	}
	if cfg.Chain.Denom == "" {
		cfg.Chain.Denom = "uhuahua"
	}
	if cfg.Chain.GasLimit == 0 {
		cfg.Chain.GasLimit = 400_000
	}
	if cfg.Chain.GasPriceMicro <= 0 {
		cfg.Chain.GasPriceMicro = 1
	}
	if cfg.Trade.QuoteTimeoutSeconds <= 0 {
		cfg.Trade.QuoteTimeoutSeconds = 10
	}
	if cfg.Trade.SubmitTimeoutSeconds <= 0 {
		cfg.Trade.SubmitTimeoutSeconds = 60
	}
	if cfg.Trade.QuoteTTLSeconds <= 0 {
		cfg.Trade.QuoteTTLSeconds = 30
	}
	if cfg.Trade.MaxSlippagePct == nil {
		v := defaultMaxSlippagePct
		cfg.Trade.MaxSlippagePct = &v
	}
	if cfg.Trade.DefaultSlippagePct == nil {
		// nunca por encima de un max configurado más bajo
		v := min(defaultSlippagePct, *cfg.Trade.MaxSlippagePct)
		cfg.Trade.DefaultSlippagePct = &v
	}
	if cfg.Trade.MaxShares == 0 {
		cfg.Trade.MaxShares = 1_000_000
	}
	if cfg.Auction.DurationHours <= 0 {
		cfg.Auction.DurationHours = 24
	}
	if cfg.Auction.CountdownTickMS <= 0 {
		cfg.Auction.CountdownTickMS = 1000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "influstock.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
