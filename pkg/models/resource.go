package models

// ResourceType identifies the kind of deployed resource being monitored.
type ResourceType string

const (
	ResourceComputeVM        ResourceType = "compute-vm"
	ResourceComputeContainer ResourceType = "compute-container"
	ResourceComputeFunction  ResourceType = "compute-function"
	ResourceDatabase         ResourceType = "database"
	ResourceObjectStore      ResourceType = "object-store"
	ResourceNetworkGateway   ResourceType = "network-gateway"
)

// AllResourceTypes lists every resource type in a stable order.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceComputeVM,
		ResourceComputeContainer,
		ResourceComputeFunction,
		ResourceDatabase,
		ResourceObjectStore,
		ResourceNetworkGateway,
	}
}

// Valid reports whether t is one of the built-in resource types.
func (t ResourceType) Valid() bool {
	for _, known := range AllResourceTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Environment is the deployment tier a resource runs in.
type Environment string

const (
	EnvProd    Environment = "prod"
	EnvStaging Environment = "staging"
	EnvDev     Environment = "dev"
)

// AllEnvironments lists every environment from strictest to most lax.
func AllEnvironments() []Environment {
	return []Environment{EnvProd, EnvStaging, EnvDev}
}

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	switch e {
	case EnvProd, EnvStaging, EnvDev:
		return true
	}
	return false
}

// Dimensions is a backend-specific dimension set, e.g. {"DBInstanceIdentifier": "orders-db"}.
type Dimensions map[string]string

// Clone returns an independent copy of d.
func (d Dimensions) Clone() Dimensions {
	if d == nil {
		return nil
	}
	out := make(Dimensions, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ResourceDescriptor is the input unit describing one deployed resource.
// It is treated as immutable once handed to a coordinator.
type ResourceDescriptor struct {
	Type        ResourceType `yaml:"type" json:"type" validate:"required"`
	Identifier  string       `yaml:"identifier" json:"identifier" validate:"required,max=200,printascii"`
	Environment Environment  `yaml:"environment,omitempty" json:"environment,omitempty" validate:"omitempty,oneof=prod staging dev"`

	// MetricBindings maps a logical metric name (e.g. "connections") to the
	// dimension set the backend uses for it.
	MetricBindings map[string]Dimensions `yaml:"metric_bindings,omitempty" json:"metric_bindings,omitempty"`

	Overrides *AlarmOverrides   `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Tags      map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Binding returns the dimension set bound to metric, or nil.
func (d ResourceDescriptor) Binding(metric string) Dimensions {
	if d.MetricBindings == nil {
		return nil
	}
	return d.MetricBindings[metric]
}
