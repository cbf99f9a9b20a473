package registry

// Capability names a behavior a registry instance supports. The core
// operation set is always advertised; optional behaviors depend on
// construction-time options.
type Capability string

const (
	// CapabilityBenefitRegistry is the core operation set: token and
	// collection attach, update, remove, and the query operations
	CapabilityBenefitRegistry Capability = "benefit_registry"
	// CapabilityPayableAttach indicates attaching requires a fee
	CapabilityPayableAttach Capability = "payable_attach"
	// CapabilityTokenCap indicates per-token benefits are capped
	CapabilityTokenCap Capability = "token_cap"
)

// Capabilities lists the behaviors this instance supports
func (r *registry) Capabilities() []Capability {
	caps := []Capability{CapabilityBenefitRegistry}
	if r.attachFee != nil {
		caps = append(caps, CapabilityPayableAttach)
	}
	if r.opts.MaxBenefitsPerToken > 0 {
		caps = append(caps, CapabilityTokenCap)
	}
	return caps
}

// Supports reports whether this instance supports a capability
func (r *registry) Supports(capability Capability) bool {
	for _, c := range r.Capabilities() {
		if c == capability {
			return true
		}
	}
	return false
}
