package topology

import (
	"context"
	"strings"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// IsCompatible reports whether terminations of type a may be cabled to terminations of type b
func IsCompatible(a, b string) bool {
	for _, t := range constants.CompatibleTerminationTypes[a] {
		if t == b {
			return true
		}
	}
	return false
}

// CleanCable checks a cable and both of its termination sets
func CleanCable(inv *Inventory, cable *models.Cable) error {
	verr := NewValidationError()
	if cable.Length != nil && cable.LengthUnit == "" {
		verr.Add("", "Must specify a unit when setting a cable length")
	}
	if len(cable.ATerminations) == 0 || len(cable.BTerminations) == 0 {
		verr.Add("", "Must define A and B terminations when creating a new cable.")
		return verr
	}

	sides := map[string][]models.Termination{}
	for _, end := range []string{constants.CableEndA, constants.CableEndB} {
		field := strings.ToLower(end) + "_terminations"
		seen := make(map[models.ObjectRef]bool)
		for _, ref := range cable.Terminations(end) {
			if seen[ref] {
				verr.Add(field, "Termination %s is listed more than once.", ref)
				continue
			}
			seen[ref] = true
			term, err := inv.Termination(ref)
			if err != nil {
				verr.Add(field, "Termination %s does not exist.", ref)
				continue
			}
			sides[end] = append(sides[end], term)
		}
	}
	if verr.HasErrors() {
		return verr
	}

	for _, end := range []string{constants.CableEndA, constants.CableEndB} {
		terms := sides[end]
		for _, t := range terms[1:] {
			if t.ObjectType() != terms[0].ObjectType() {
				verr.Add("", "Cannot connect different termination types to same end of cable.")
				return verr
			}
		}
		for _, t := range terms[1:] {
			if t.Parent() != terms[0].Parent() {
				verr.Add("", "All terminations on the %s side of a cable must belong to the same parent object.", end)
				return verr
			}
		}
	}

	aType := sides[constants.CableEndA][0].ObjectType()
	bType := sides[constants.CableEndB][0].ObjectType()
	if !IsCompatible(aType, bType) {
		verr.Add("", "Incompatible termination types: %s and %s", aType, bType)
		return verr
	}
	if aType == bType {
		aIDs := make(map[uint]bool)
		for _, t := range sides[constants.CableEndA] {
			aIDs[t.GetID()] = true
		}
		for _, t := range sides[constants.CableEndB] {
			if aIDs[t.GetID()] {
				verr.Add("", "A and B terminations cannot connect to the same object.")
				return verr
			}
		}
	}

	for _, end := range []string{constants.CableEndA, constants.CableEndB} {
		for _, term := range sides[end] {
			cleanCableTermination(inv, verr, cable, term)
		}
	}
	return verr.Err()
}

// cleanCableTermination checks one termination about to be bound to cable
func cleanCableTermination(inv *Inventory, verr *ValidationError, cable *models.Cable, term models.Termination) {
	ref := models.RefOf(term)
	if existing, ok := inv.CableTerminationFor(ref); ok && (cable.ID == 0 || existing.CableID != cable.ID) {
		verr.Add("", "Duplicate termination found for %s %d: cable %d", ref.Type, ref.ID, existing.CableID)
	}
	if term.Cabled().MarkConnected {
		verr.Add("", "Cannot attach a cable to %s while it is marked as connected.", ref)
	}

	switch t := term.(type) {
	case *models.Interface:
		if !IsConnectableInterfaceType(t.Type) {
			verr.Add("", "Cables cannot be terminated to %s interfaces", interfaceTypeLabel(t.Type))
		}
	case *models.CircuitTermination:
		if t.ProviderNetworkID != nil {
			verr.Add("", "Circuit terminations attached to a provider network may not be cabled.")
		}
	}
}

// SaveCable validates a cable, persists it with one termination row per attached object,
// and points every termination at the cable. Terminations dropped from an existing cable
// are detached.
func (e *Engine) SaveCable(ctx context.Context, cable *models.Cable) error {
	if cable.Status == "" {
		cable.Status = constants.DefaultCableStatus
	}
	return e.save(ctx, cable, func(tx Tx) error {
		return CleanCable(tx.Inventory(), cable)
	}, func(tx Tx) error {
		return attachTerminations(tx, cable)
	})
}

func attachTerminations(tx Tx, cable *models.Cable) error {
	inv := tx.Inventory()

	wanted := make(map[models.ObjectRef]string)
	for _, end := range []string{constants.CableEndA, constants.CableEndB} {
		for _, ref := range cable.Terminations(end) {
			wanted[ref] = end
		}
	}

	kept := make(map[models.ObjectRef]bool)
	for _, ct := range inv.TerminationsOfCable(cable.ID) {
		ref := ct.Termination()
		if end, ok := wanted[ref]; ok && end == ct.CableEnd {
			kept[ref] = true
			continue
		}
		if err := detach(tx, ct); err != nil {
			return err
		}
	}

	for _, end := range []string{constants.CableEndA, constants.CableEndB} {
		for _, ref := range cable.Terminations(end) {
			term, err := inv.Termination(ref)
			if err != nil {
				return err
			}
			cabled := term.Cabled()
			cabled.CableID = models.UintPtr(cable.ID)
			cabled.CableEnd = end
			if err := tx.Save(term); err != nil {
				return err
			}
			if kept[ref] {
				continue
			}

			p := inv.placementOf(term)
			row := &models.CableTermination{
				CableID:         cable.ID,
				CableEnd:        end,
				TerminationType: ref.Type,
				TerminationID:   ref.ID,
				DeviceID:        p.DeviceID,
				RackID:          p.RackID,
				LocationID:      p.LocationID,
				SiteID:          p.SiteID,
			}
			if err := tx.Create(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// detach removes a termination row and clears the cable from the terminating object
func detach(tx Tx, ct *models.CableTermination) error {
	if term, err := tx.Inventory().Termination(ct.Termination()); err == nil {
		cabled := term.Cabled()
		if cabled.CableID != nil && *cabled.CableID == ct.CableID {
			cabled.CableID = nil
			cabled.CableEnd = ""
			if err := tx.Save(term); err != nil {
				return err
			}
		}
	}
	return tx.Delete(ct)
}

// DeleteCable removes a cable and clears it from every termination. The returned cable
// no longer has an ID but still renders its former one.
func (e *Engine) DeleteCable(ctx context.Context, id uint) (*models.Cable, error) {
	var deleted *models.Cable
	err := e.store.Atomic(ctx, func(tx Tx) error {
		inv := tx.Inventory()
		cable, ok := inv.Cable(id)
		if !ok {
			return notFound(constants.ObjectCable, id)
		}
		for _, ct := range inv.TerminationsOfCable(id) {
			if err := detach(tx, ct); err != nil {
				return err
			}
		}
		deleted = cable.Clone().(*models.Cable)
		return tx.Delete(cable)
	})
	if err != nil {
		return nil, err
	}
	deleted.MarkDeleted()
	e.log.WithField("cable", deleted.String()).Debug("cable deleted")
	return deleted, nil
}

// LinkPeers returns the terminations on the far end of the cable attached to ref
func LinkPeers(inv *Inventory, ref models.ObjectRef) ([]models.Termination, error) {
	if _, err := inv.Termination(ref); err != nil {
		return nil, err
	}
	row, ok := inv.CableTerminationFor(ref)
	if !ok {
		return nil, nil
	}
	var peers []models.Termination
	for _, ct := range inv.TerminationsOfCable(row.CableID) {
		if ct.CableEnd == row.CableEnd {
			continue
		}
		term, err := inv.Termination(ct.Termination())
		if err != nil {
			return nil, err
		}
		peers = append(peers, term)
	}
	return peers, nil
}

// LinkPeers returns the terminations on the far end of the cable attached to ref
func (e *Engine) LinkPeers(ctx context.Context, ref models.ObjectRef) ([]models.Termination, error) {
	var peers []models.Termination
	err := e.store.View(ctx, func(inv *Inventory) error {
		var err error
		peers, err = LinkPeers(inv, ref)
		return err
	})
	return peers, err
}
