package topology

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/braunma/netbox-topology/pkg/models"
)

// cleanComponentTemplates checks that template names are unique per kind and that every
// front port maps onto a position of a rear port template
func cleanComponentTemplates(verr *ValidationError, t models.ComponentTemplates) {
	unique := func(field string, names []string) {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			if seen[name] {
				verr.Add(field, "Duplicate template name: %s", name)
			}
			seen[name] = true
		}
	}
	unique("interfaces", templateNames(t.Interfaces, func(x models.InterfaceTemplate) string { return x.Name }))
	unique("front_ports", templateNames(t.FrontPorts, func(x models.PortTemplate) string { return x.Name }))
	unique("rear_ports", templateNames(t.RearPorts, func(x models.PortTemplate) string { return x.Name }))
	unique("module_bays", templateNames(t.ModuleBays, func(x models.ModuleBayTemplate) string { return x.Name }))
	unique("power_ports", templateNames(t.PowerPorts, func(x models.PowerPortTemplate) string { return x.Name }))
	unique("console_ports", templateNames(t.ConsolePorts, func(x models.ConsolePortTemplate) string { return x.Name }))
	unique("console_server_ports", templateNames(t.ConsoleServerPorts, func(x models.ConsolePortTemplate) string { return x.Name }))

	positions := make(map[string]int, len(t.RearPorts))
	for _, rp := range t.RearPorts {
		positions[rp.Name] = max(rp.Positions, 1)
	}
	for _, fp := range t.FrontPorts {
		n, ok := positions[fp.RearPort]
		if !ok {
			verr.Add("front_ports", "Front port %s maps to an unknown rear port template (%s).", fp.Name, fp.RearPort)
			continue
		}
		if max(fp.RearPortPosition, 1) > n {
			verr.Add("front_ports", "Invalid rear port position (%d): Rear port %s has only %d positions.",
				fp.RearPortPosition, fp.RearPort, n)
		}
	}
}

func templateNames[T any](templates []T, name func(T) string) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = name(t)
	}
	return out
}

// instantiateComponents creates the components of a new device from its type's templates.
// Rear ports go first so front ports can map onto them.
func instantiateComponents(tx Tx, d *models.Device) error {
	dt, ok := tx.Inventory().DeviceType(d.DeviceTypeID)
	if !ok || dt.Components.Count() == 0 {
		return nil
	}
	t := dt.Components
	owner := func(name string) models.DeviceComponent {
		return models.DeviceComponent{DeviceID: d.ID, Name: name}
	}
	create := func(obj models.Object, clean func(inv *Inventory) error) error {
		if err := clean(tx.Inventory()); err != nil {
			return templateError(dt, obj, err)
		}
		return tx.Create(obj)
	}
	termination := func(term models.Termination) error {
		return create(term, func(inv *Inventory) error { return CleanTermination(inv, term) })
	}

	rearPorts := make(map[string]uint, len(t.RearPorts))
	for _, tmpl := range t.RearPorts {
		rp := &models.RearPort{DeviceComponent: owner(tmpl.Name), Type: tmpl.Type, Positions: max(tmpl.Positions, 1)}
		if err := termination(rp); err != nil {
			return err
		}
		rearPorts[tmpl.Name] = rp.ID
	}
	for _, tmpl := range t.FrontPorts {
		fp := &models.FrontPort{
			DeviceComponent:  owner(tmpl.Name),
			Type:             tmpl.Type,
			RearPortID:       rearPorts[tmpl.RearPort],
			RearPortPosition: max(tmpl.RearPortPosition, 1),
		}
		if err := termination(fp); err != nil {
			return err
		}
	}
	for _, tmpl := range t.Interfaces {
		i := &models.Interface{DeviceComponent: owner(tmpl.Name), Type: tmpl.Type, Enabled: true, MgmtOnly: tmpl.MgmtOnly}
		if err := termination(i); err != nil {
			return err
		}
	}
	for _, tmpl := range t.ModuleBays {
		bay := &models.ModuleBay{DeviceID: d.ID, Name: tmpl.Name, Label: tmpl.Label, Position: tmpl.Position}
		if err := create(bay, func(inv *Inventory) error { return CleanModuleBay(inv, bay) }); err != nil {
			return err
		}
	}
	for _, tmpl := range t.PowerPorts {
		pp := &models.PowerPort{DeviceComponent: owner(tmpl.Name), MaximumDraw: tmpl.MaximumDraw, AllocatedDraw: tmpl.AllocatedDraw}
		if err := termination(pp); err != nil {
			return err
		}
	}
	for _, tmpl := range t.ConsolePorts {
		if err := termination(&models.ConsolePort{DeviceComponent: owner(tmpl.Name)}); err != nil {
			return err
		}
	}
	for _, tmpl := range t.ConsoleServerPorts {
		if err := termination(&models.ConsoleServerPort{DeviceComponent: owner(tmpl.Name)}); err != nil {
			return err
		}
	}
	return nil
}

// templateError reports a component that could not be created from a template on the
// device type field
func templateError(dt *models.DeviceType, obj models.Object, err error) error {
	verr, ok := AsValidationError(err)
	if !ok {
		return err
	}
	var msgs []string
	for _, field := range slices.Sorted(maps.Keys(verr.Fields)) {
		msgs = append(msgs, verr.Fields[field]...)
	}
	out := NewValidationError()
	out.Add("device_type", "Cannot create %s %s from %s: %s", obj.ObjectType(), componentName(obj), dt, strings.Join(msgs, " "))
	return out
}

func componentName(obj models.Object) string {
	switch c := obj.(type) {
	case models.Component:
		return c.Component().Name
	case *models.ModuleBay:
		return c.Name
	}
	return fmt.Sprint(obj.GetID())
}
