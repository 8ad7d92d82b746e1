package reconciler

import (
	"context"
	"fmt"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// NetworkReconciler handles provider circuits and MAC addresses
type NetworkReconciler struct {
	*state
}

// ReconcileCircuits reconciles circuits, the provider networks they land on, and their
// terminations. Termination links are queued for the cable phase.
func (nr *NetworkReconciler) ReconcileCircuits(ctx context.Context, circuits []*models.CircuitConfig) error {
	nr.logger.Info("Reconciling %d circuits...", len(circuits))

	for _, cfg := range circuits {
		circuit := &models.Circuit{}
		if existing, ok := first(nr.inv.Circuits(), func(x *models.Circuit) bool {
			return x.Provider == cfg.Provider && x.CID == cfg.CID
		}); ok {
			circuit = existing.Clone().(*models.Circuit)
		}
		circuit.CID = cfg.CID
		circuit.Provider = cfg.Provider

		if err := nr.apply(circuit, cfg.CID, func() error { return nr.engine.SaveCircuit(ctx, circuit) }); err != nil {
			return fmt.Errorf("failed to reconcile circuit %s: %w", cfg.CID, err)
		}

		for _, termCfg := range cfg.Terminations {
			if err := nr.reconcileTermination(ctx, circuit, termCfg); err != nil {
				return fmt.Errorf("failed to reconcile circuit %s side %s: %w", cfg.CID, termCfg.TermSide, err)
			}
		}
	}
	return nil
}

func (nr *NetworkReconciler) reconcileTermination(ctx context.Context, circuit *models.Circuit, cfg models.CircuitTerminationConfig) error {
	term := &models.CircuitTermination{}
	if existing, ok := nr.circuitTermination(circuit.ID, cfg.TermSide); ok {
		term = existing.Clone().(*models.CircuitTermination)
	}
	term.CircuitID = circuit.ID
	term.TermSide = cfg.TermSide
	term.SiteID = nil
	term.ProviderNetworkID = nil

	if cfg.SiteSlug != "" {
		siteID, err := nr.siteID(cfg.SiteSlug)
		if err != nil {
			return err
		}
		term.SiteID = models.UintPtr(siteID)
	}
	if cfg.ProviderNetwork != "" {
		networkID, err := nr.reconcileProviderNetwork(ctx, circuit.Provider, cfg.ProviderNetwork)
		if err != nil {
			return err
		}
		term.ProviderNetworkID = models.UintPtr(networkID)
	}

	label := fmt.Sprintf("%s side %s", circuit.CID, cfg.TermSide)
	if err := nr.apply(term, label, func() error { return nr.engine.SaveTermination(ctx, term) }); err != nil {
		return err
	}

	nr.queue(&CableEndpoint{
		DeviceName: circuit.CID,
		PortName:   "Side " + cfg.TermSide,
		ObjectType: constants.TerminationCircuit,
		ObjectID:   term.ID,
	}, cfg.Link)
	return nil
}

func (nr *NetworkReconciler) reconcileProviderNetwork(ctx context.Context, provider, name string) (uint, error) {
	network := &models.ProviderNetwork{}
	if existing, ok := first(nr.inv.ProviderNetworks(), func(x *models.ProviderNetwork) bool {
		return x.Provider == provider && x.Name == name
	}); ok {
		network = existing.Clone().(*models.ProviderNetwork)
	}
	network.Name = name
	network.Provider = provider

	if err := nr.apply(network, name, func() error { return nr.engine.SaveProviderNetwork(ctx, network) }); err != nil {
		return 0, err
	}
	return network.ID, nil
}

// ReconcileMACAddresses assigns the configured MAC addresses to their interfaces and sets
// the primary MAC. Addresses are never moved off another object; a MAC assigned
// elsewhere gets a new row for this interface.
func (nr *NetworkReconciler) ReconcileMACAddresses(ctx context.Context, devices []*models.DeviceConfig) error {
	for _, device := range devices {
		siteID, err := nr.siteID(device.SiteSlug)
		if err != nil {
			return fmt.Errorf("failed to reconcile MAC addresses of %s: %w", device.Name, err)
		}
		d, ok := nr.deviceByName(siteID, device.Name)
		if !ok {
			return fmt.Errorf("device %s not found", device.Name)
		}

		for _, ifaceCfg := range device.Interfaces {
			if len(ifaceCfg.MACAddresses) == 0 && ifaceCfg.PrimaryMAC == "" {
				if err := nr.clearPrimaryMAC(ctx, d, ifaceCfg.Name); err != nil {
					return err
				}
				continue
			}
			if err := nr.reconcileInterfaceMACs(ctx, d, ifaceCfg); err != nil {
				return fmt.Errorf("failed to reconcile MAC addresses of %s[%s]: %w", device.Name, ifaceCfg.Name, err)
			}
		}
	}
	return nil
}

func (nr *NetworkReconciler) iface(d *models.Device, name string) (*models.Interface, error) {
	comp, ok := nr.component(d.ID, constants.TerminationInterface, name)
	if !ok {
		return nil, fmt.Errorf("interface %s not found on %s", name, d)
	}
	return comp.Clone().(*models.Interface), nil
}

func (nr *NetworkReconciler) reconcileInterfaceMACs(ctx context.Context, d *models.Device, cfg models.InterfaceConfig) error {
	iface, err := nr.iface(d, cfg.Name)
	if err != nil {
		return err
	}
	ref := models.RefOf(iface)

	addresses := append([]string(nil), cfg.MACAddresses...)
	if cfg.PrimaryMAC != "" {
		addresses = append(addresses, cfg.PrimaryMAC)
	}

	ids := make(map[string]uint)
	for _, addr := range addresses {
		normalized := models.NormalizeMAC(addr)
		if _, done := ids[normalized]; done {
			continue
		}

		mac := &models.MACAddress{}
		if existing, ok := first(nr.inv.MACAddresses(), func(x *models.MACAddress) bool {
			assigned := x.AssignedObject()
			return x.MACAddress == normalized && assigned != nil && *assigned == ref
		}); ok {
			mac = existing.Clone().(*models.MACAddress)
		}
		mac.MACAddress = normalized
		mac.Assign(&ref)

		label := fmt.Sprintf("%s on %s[%s]", normalized, d, iface.Name)
		if err := nr.apply(mac, label, func() error { return nr.engine.SaveMACAddress(ctx, mac) }); err != nil {
			return err
		}
		ids[normalized] = mac.ID
	}

	var primary *uint
	if cfg.PrimaryMAC != "" {
		primary = models.UintPtr(ids[models.NormalizeMAC(cfg.PrimaryMAC)])
	}
	return nr.setPrimaryMAC(ctx, d, iface, primary)
}

func (nr *NetworkReconciler) clearPrimaryMAC(ctx context.Context, d *models.Device, name string) error {
	iface, err := nr.iface(d, name)
	if err != nil {
		return err
	}
	return nr.setPrimaryMAC(ctx, d, iface, nil)
}

func (nr *NetworkReconciler) setPrimaryMAC(ctx context.Context, d *models.Device, iface *models.Interface, primary *uint) error {
	iface.PrimaryMACAddressID = primary
	label := fmt.Sprintf("%s[%s]", d, iface.Name)
	return nr.apply(iface, label, func() error { return nr.engine.SaveTermination(ctx, iface) })
}
