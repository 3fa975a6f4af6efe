package models

import "fmt"

// Capability is a distinct paid operation category. Each capability has
// its own credit cost and its own bounded job queue.
type Capability string

const (
	CapabilityChatCompletion  Capability = "chat-completion"
	CapabilityImageGeneration Capability = "image-generation"
	CapabilityImageLookup     Capability = "image-lookup"
)

// AllCapabilities lists every capability the bot serves. Startup wiring
// verifies that each one has both a cost and a queue.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityChatCompletion,
		CapabilityImageGeneration,
		CapabilityImageLookup,
	}
}

// CostTable maps each capability to its credit cost. Fixed at
// construction time, never mutated afterwards.
type CostTable map[Capability]int64

// Cost returns the cost for a capability, or an error if the capability
// is not priced.
func (t CostTable) Cost(capability Capability) (int64, error) {
	cost, ok := t[capability]
	if !ok {
		return 0, fmt.Errorf("no cost configured for capability %q", capability)
	}
	return cost, nil
}

// Validate checks that every known capability is priced with a positive cost.
func (t CostTable) Validate() error {
	for _, capability := range AllCapabilities() {
		cost, ok := t[capability]
		if !ok {
			return fmt.Errorf("capability %q has no configured cost", capability)
		}
		if cost <= 0 {
			return fmt.Errorf("capability %q has non-positive cost %d", capability, cost)
		}
	}
	return nil
}
