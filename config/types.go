package config

type CustodyConfModel struct {
	LogLevel         string   `mapstructure:"log_level"`
	LogFormat        string   `mapstructure:"log_format"`
	LoginTokenExpiry string   `mapstructure:"login_token_expiry"`
	LoginMaxSkew     string   `mapstructure:"login_max_skew"`
	Mode             string   `mapstructure:"mode"`
	AdminUsers       []string `mapstructure:"admin_users"`
	Server           Server   `mapstructure:"server"`
	Chain            Chain    `mapstructure:"chain"`
	DB               DB       `mapstructure:"db"`
	Vault            Vault    `mapstructure:"vault"`
	Currency         Currency `mapstructure:"currency"`
	Events           Events   `mapstructure:"events"`
	Auth             Auth     `mapstructure:"auth"`
}

type Chain struct {
	Supported []string `mapstructure:"supported"`
}

type DB struct {
	Host     string `mapstructure:"host"`
	Keyspace string `mapstructure:"keyspace"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Server struct {
	Port       int    `mapstructure:"port"`
	APIPrefix  string `mapstructure:"api_prefix"`
	APIVersion string `mapstructure:"api_version"`
}

type Vault struct {
	CancelBudget       int       `mapstructure:"cancel_budget"`
	StateCacheTTL      string    `mapstructure:"state_cache_ttl"`
	CheckpointInterval string    `mapstructure:"checkpoint_interval"`
	Root               RootVault `mapstructure:"root"`
}

// RootVault bootstraps the first root controller when no state is stored.
type RootVault struct {
	Name                   string `mapstructure:"name"`
	Owner                  string `mapstructure:"owner"`
	EscapeHatchCaller      string `mapstructure:"escape_hatch_caller"`
	EscapeHatchDestination string `mapstructure:"escape_hatch_destination"`
	ParentVault            string `mapstructure:"parent_vault"`
	BaseToken              string `mapstructure:"base_token"`
}

type Currency struct {
	Symbol   string `mapstructure:"symbol"`
	Decimals int32  `mapstructure:"decimals"`
}

type Events struct {
	AmqpURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

type Auth struct {
	// JWK file holding the RSA key tokens are signed with
	KeyPath string `mapstructure:"key_path"`
}
