package shared

type ServerConfig struct {
	Sqlite SqliteConfig `mapstructure:"sqlite" validate:"required"`
	Raksha RakshaConfig `mapstructure:"raksha" validate:"required"`
	Safety SafetyConfig `mapstructure:"safety" validate:"required"`
	Twilio TwilioConfig `mapstructure:"twilio"`
	Google GoogleConfig `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type RakshaConfig struct {
	PrivateKeyPem string         `mapstructure:"privateKeyPem" validate:"required"`
	UploadDir     string         `mapstructure:"uploadDir"`
	Cron          CronConfig     `mapstructure:"cron" validate:"required"`
	Listener      ListenerConfig `mapstructure:"listener" validate:"required"`
}

type SafetyConfig struct {
	AuthorityNumber   string   `mapstructure:"authorityNumber" validate:"required"`
	RequiredDocuments []string `mapstructure:"requiredDocuments" validate:"required,min=1"`
	SmsAttempts       int      `mapstructure:"smsAttempts" validate:"omitempty,min=1,max=10"`
	SmsDelaySeconds   int      `mapstructure:"smsDelaySeconds" validate:"omitempty,min=0,max=60"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	FromNumber          string `mapstructure:"fromNumber"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type StorageConfig struct {
	DocumentsBucket           string `mapstructure:"documentsBucket"`
	Bucket                    string `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string `mapstructure:"prefix" validate:"required_with=EnableSqliteBackupAndSync"`
	SqliteBackupSchedule      string `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync bool   `mapstructure:"enableSqliteBackupAndSync"`
}
