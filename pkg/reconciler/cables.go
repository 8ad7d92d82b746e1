package reconciler

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/utils"
)

// CableReconciler handles cable reconciliation with full idempotency
type CableReconciler struct {
	*state
	processedPairs map[string]bool // Track processed cable pairs to avoid duplicates
}

// NewCableReconciler creates a new cable reconciler
func NewCableReconciler(s *state) *CableReconciler {
	return &CableReconciler{
		state:          s,
		processedPairs: make(map[string]bool),
	}
}

// CableEndpoint represents one end of a cable
type CableEndpoint struct {
	DeviceName string // parent name: device, power panel or circuit ID
	PortName   string
	ObjectType string // "dcim.interface", "dcim.frontport", "circuits.circuittermination", ...
	ObjectID   uint
}

// Ref returns the termination reference of the endpoint
func (e *CableEndpoint) Ref() models.ObjectRef {
	return models.ObjectRef{Type: e.ObjectType, ID: e.ObjectID}
}

func (e *CableEndpoint) String() string {
	return fmt.Sprintf("%s[%s]", e.DeviceName, e.PortName)
}

// pendingCable tracks a cable that needs to be created after all devices are processed
type pendingCable struct {
	source *CableEndpoint
	link   *models.LinkConfig
}

// queue defers a link until every termination exists
func (s *state) queue(source *CableEndpoint, link *models.LinkConfig) {
	if link == nil {
		return
	}
	s.logger.Debug("      Cable: %s → %s[%s]", source, link.PeerDevice+link.PeerCircuit, link.PeerPort+link.PeerTermSide)
	s.pending = append(s.pending, pendingCable{source: source, link: link})
}

// ReconcilePending resolves the peer of every queued link and reconciles its cable
func (cr *CableReconciler) ReconcilePending(ctx context.Context, pending []pendingCable) error {
	cr.logger.Info("Reconciling %d pending cable connections...", len(pending))

	for _, pc := range pending {
		peer, err := cr.resolvePeer(pc.link)
		if err != nil {
			return fmt.Errorf("cable from %s: %w", pc.source, err)
		}
		if err := cr.ReconcileCable(ctx, pc.source, peer, pc.link); err != nil {
			return fmt.Errorf("cable %s → %s: %w", pc.source, peer, err)
		}
	}
	return nil
}

// resolvePeer finds the far end of a link: a device port or a circuit termination
func (cr *CableReconciler) resolvePeer(link *models.LinkConfig) (*CableEndpoint, error) {
	if link.PeerCircuit == "" {
		return cr.findPort(link.PeerDevice, link.PeerPort, link.PeerType)
	}

	side := link.PeerTermSide
	if side == "" {
		side = constants.CableEndA
	}
	circuit, ok := cr.circuit(link.PeerCircuit)
	if !ok {
		return nil, fmt.Errorf("circuit %s not found", link.PeerCircuit)
	}
	term, ok := cr.circuitTermination(circuit.ID, side)
	if !ok {
		return nil, fmt.Errorf("circuit %s has no %s side termination", link.PeerCircuit, side)
	}
	return &CableEndpoint{
		DeviceName: circuit.CID,
		PortName:   "Side " + side,
		ObjectType: constants.TerminationCircuit,
		ObjectID:   term.ID,
	}, nil
}

// ReconcileCable reconciles a cable between two endpoints (IDEMPOTENT)
func (cr *CableReconciler) ReconcileCable(ctx context.Context, aEnd, bEnd *CableEndpoint, link *models.LinkConfig) error {
	if aEnd == nil || bEnd == nil {
		return fmt.Errorf("cable endpoints cannot be nil")
	}

	cr.logger.Debug("┌─ Cable Reconciliation ─────────────────────────")
	cr.logger.Debug("│ A-End: %s → %s (ID: %d)", aEnd, aEnd.ObjectType, aEnd.ObjectID)
	cr.logger.Debug("│ B-End: %s → %s (ID: %d)", bEnd, bEnd.ObjectType, bEnd.ObjectID)
	defer cr.logger.Debug("└────────────────────────────────────────────────")

	// Create a canonical pair ID (sorted to ensure A->B == B->A)
	pairID := cr.createPairID(aEnd, bEnd)
	if cr.processedPairs[pairID] {
		cr.logger.Debug("│ Status: Already processed (idempotent)")
		return nil
	}
	cr.processedPairs[pairID] = true

	desired := cr.findExistingCable(aEnd, bEnd)
	if desired == nil {
		cr.logger.Debug("│ No existing cable found")
		desired = &models.Cable{
			ATerminations: []models.ObjectRef{aEnd.Ref()},
			BTerminations: []models.ObjectRef{bEnd.Ref()},
		}
	} else {
		cr.logger.Debug("│ Status: Cable exists (ID: %d)", desired.ID)
	}
	cr.configure(desired, link)

	label := fmt.Sprintf("%s ↔ %s", aEnd, bEnd)
	err := cr.apply(desired, label, func() error {
		return cr.engine.SaveCable(ctx, desired)
	})
	if err != nil {
		return err
	}
	cr.stats.Cables++
	// Saving a cable rewrites its terminations
	return cr.refresh(ctx)
}

// createPairID creates a canonical identifier for a cable pair (order-independent)
func (cr *CableReconciler) createPairID(aEnd, bEnd *CableEndpoint) string {
	// Create stable IDs for both ends
	aID := fmt.Sprintf("%s:%s:%d", aEnd.ObjectType, aEnd.DeviceName, aEnd.ObjectID)
	bID := fmt.Sprintf("%s:%s:%d", bEnd.ObjectType, bEnd.DeviceName, bEnd.ObjectID)

	// Sort to ensure A->B == B->A
	ids := []string{aID, bID}
	sort.Strings(ids)

	return fmt.Sprintf("%s <-> %s", ids[0], ids[1])
}

// findExistingCable returns a copy of the cable attached to either endpoint, with its
// terminations rewritten to the desired pair. The end the existing cable already uses
// for aEnd is kept. A re-patched cable moves its far end; the old peer is detached on save.
func (cr *CableReconciler) findExistingCable(aEnd, bEnd *CableEndpoint) *models.Cable {
	cr.logger.Debug("│ Searching for existing cable...")

	for _, end := range []*CableEndpoint{aEnd, bEnd} {
		ct, ok := cr.inv.CableTerminationFor(end.Ref())
		if !ok {
			continue
		}
		stored, ok := cr.inv.Cable(ct.CableID)
		if !ok {
			continue
		}
		cable := stored.Clone().(*models.Cable)

		near, far := aEnd, bEnd
		if end == bEnd {
			near, far = bEnd, aEnd
		}
		nearRefs := []models.ObjectRef{near.Ref()}
		farRefs := []models.ObjectRef{far.Ref()}
		if ct.CableEnd == constants.CableEndA {
			cable.ATerminations, cable.BTerminations = nearRefs, farRefs
		} else {
			cable.ATerminations, cable.BTerminations = farRefs, nearRefs
		}

		if !reflect.DeepEqual(stored.ATerminations, cable.ATerminations) ||
			!reflect.DeepEqual(stored.BTerminations, cable.BTerminations) {
			cr.logger.Warning("Cable %s on %s is re-patched to %s", stored, near, far)
		}
		return cable
	}
	return nil
}

// configure applies the link attributes, falling back to the cable defaults
func (cr *CableReconciler) configure(cable *models.Cable, link *models.LinkConfig) {
	cable.Type = constants.DefaultCableType
	cable.Status = constants.DefaultCableStatus
	cable.Label = ""
	cable.Length = nil
	cable.LengthUnit = ""
	if link == nil {
		cable.Color = utils.CableColor(cable.Type, "")
		return
	}

	if link.CableType != "" {
		cable.Type = link.CableType
	}
	cable.Color = utils.CableColor(cable.Type, link.Color)
	cable.Label = link.Label
	if link.Length != nil {
		cable.Length = models.FloatPtr(*link.Length)
		cable.LengthUnit = link.LengthUnit
		if cable.LengthUnit == "" {
			cable.LengthUnit = constants.DefaultLengthUnit
		}
	}
}

// Reset clears the processed pairs tracker (useful for testing or re-running)
func (cr *CableReconciler) Reset() {
	cr.processedPairs = make(map[string]bool)
}
