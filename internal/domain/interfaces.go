package domain

// Assessor turns one set of patient attributes into a readmission risk assessment.
// Implementations must be safe for concurrent use and free of per-call state.
type Assessor interface {
	Assess(input PatientInput) (*RiskAssessment, error)
	Features(input PatientInput) (*FeatureVector, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetModelConfig() *ModelConfig
	GetDecisionPolicy() DecisionPolicy
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
