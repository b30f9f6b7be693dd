package payment

import (
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Registry holds the gateways enabled in configuration
type Registry struct {
	gateways map[payment.GatewayType]payment.Gateway
}

// NewRegistry builds a registry from configuration. Disabled gateways are
// skipped; a misconfigured enabled gateway fails startup.
func NewRegistry(cfg *config.PaymentConfig, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := &Registry{
		gateways: make(map[payment.GatewayType]payment.Gateway),
	}

	if cfg.Paygate.Enabled {
		adapter, err := NewPaygateAdapter(&cfg.Paygate)
		if err != nil {
			return nil, err
		}
		registry.gateways[payment.GatewayTypePayGate] = adapter
		logger.Info("Payment gateway enabled", zap.String("gateway", payment.GatewayTypePayGate.String()))
	}

	if cfg.Stripe.Enabled {
		adapter, err := NewStripeAdapter(&cfg.Stripe)
		if err != nil {
			return nil, err
		}
		registry.gateways[payment.GatewayTypeStripe] = adapter
		logger.Info("Payment gateway enabled", zap.String("gateway", payment.GatewayTypeStripe.String()))
	}

	return registry, nil
}

// NewRegistryWithGateways builds a registry from explicit gateways (for tests)
func NewRegistryWithGateways(gateways ...payment.Gateway) *Registry {
	registry := &Registry{
		gateways: make(map[payment.GatewayType]payment.Gateway),
	}
	for _, g := range gateways {
		registry.gateways[g.Type()] = g
	}
	return registry
}

// Get returns the gateway for the given type
func (r *Registry) Get(gatewayType payment.GatewayType) (payment.Gateway, error) {
	gateway, ok := r.gateways[gatewayType]
	if !ok {
		return nil, payment.ErrGatewayNotConfigured
	}
	return gateway, nil
}

// List returns all configured gateways
func (r *Registry) List() []payment.Gateway {
	gateways := make([]payment.Gateway, 0, len(r.gateways))
	for _, g := range r.gateways {
		gateways = append(gateways, g)
	}
	return gateways
}

// Ensure Registry implements GatewayRegistry
var _ payment.GatewayRegistry = (*Registry)(nil)
