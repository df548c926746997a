package serverconfig

type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	WSServer    WSServerConfig    `yaml:"wsserver" mapstructure:"wsserver"`
	HTTPServer  HTTPServerConfig  `yaml:"httpserver" mapstructure:"httpserver"`
	GRPCServer  GRPCServerConfig  `yaml:"grpcserver" mapstructure:"grpcserver"`
	Game        GameConfig        `yaml:"game" mapstructure:"game"`
	Persistence PersistenceConfig `yaml:"persistence" mapstructure:"persistence"`
	MySQL       MySQLConfig       `yaml:"mysql" mapstructure:"mysql"`
	MongoDB     MongoDBConfig     `yaml:"mongodb" mapstructure:"mongodb"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	JWTSecret   string            `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TicketTTLS  int               `yaml:"ticket_ttl_s" mapstructure:"ticket_ttl_s"`
}

// ServerConfig 是行分隔 JSON 的 TCP 入口。
type ServerConfig struct {
	Host         string  `yaml:"host" mapstructure:"host"`
	Port         int     `yaml:"port" mapstructure:"port"`
	MaxLineBytes int     `yaml:"max_line_bytes" mapstructure:"max_line_bytes"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // 每秒命令数，<=0 不限流
	RateBurst    int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

type WSServerConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Host       string `yaml:"host" mapstructure:"host"`
	Port       int    `yaml:"port" mapstructure:"port"`
	NeedSecret bool   `yaml:"need_secret" mapstructure:"need_secret"`
}

type HTTPServerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

type GRPCServerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

type GameConfig struct {
	WorldFile      string  `yaml:"world_file" mapstructure:"world_file"`
	BalanceFile    string  `yaml:"balance_file" mapstructure:"balance_file"` // 为空使用内置平衡表
	TickIntervalS  float64 `yaml:"tick_interval_s" mapstructure:"tick_interval_s"`
	FlushIntervalS int     `yaml:"flush_interval_s" mapstructure:"flush_interval_s"`
}

type PersistenceConfig struct {
	Driver  string `yaml:"driver" mapstructure:"driver"` // memory/file/mongodb/mysql
	FileDir string `yaml:"file_dir" mapstructure:"file_dir"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
	ShowSQL  bool   `yaml:"show_sql" mapstructure:"show_sql"`
}

type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	Collection      string `yaml:"collection" mapstructure:"collection"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}
