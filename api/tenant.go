package api

// Tenant is the read-only request context shared by every outgoing call.
type Tenant struct {
	OrganizationID string
	BranchID       string
	Token          string
}

// TenantProvider supplies the current tenant. Implementations must not be
// mutated by callers of the transport.
type TenantProvider interface {
	Tenant() Tenant
}

// StaticTenant is a fixed tenant, typically built from configuration.
type StaticTenant Tenant

func (s StaticTenant) Tenant() Tenant {
	return Tenant(s)
}

// TenantFunc adapts a function to a TenantProvider.
type TenantFunc func() Tenant

func (f TenantFunc) Tenant() Tenant {
	return f()
}
