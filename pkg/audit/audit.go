package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/topology"
)

// Finding is one rule violation
type Finding struct {
	ObjectType string `json:"object_type"`
	ObjectID   uint   `json:"object_id"`
	Object     string `json:"object,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// RackUtilization is the occupied share of one rack
type RackUtilization struct {
	RackID  uint    `json:"rack_id"`
	Rack    string  `json:"rack"`
	Site    string  `json:"site"`
	Percent float64 `json:"percent"`
}

// Report is the result of auditing one inventory
type Report struct {
	ID        string            `json:"id" badgerhold:"key"`
	Source    string            `json:"source"`
	CreatedAt time.Time         `json:"created_at" badgerhold:"index"`
	Duration  time.Duration     `json:"duration"`
	Objects   int               `json:"objects"`
	Findings  []Finding         `json:"findings"`
	Racks     []RackUtilization `json:"racks"`
}

// Valid reports whether the audit found no violations
func (r *Report) Valid() bool {
	return len(r.Findings) == 0
}

// Summary counts findings per object type
func (r *Report) Summary() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.ObjectType]++
	}
	return counts
}

// Auditor runs every consistency rule over a whole inventory
type Auditor struct {
	log logrus.FieldLogger
}

// NewAuditor creates an auditor
func NewAuditor(logger logrus.FieldLogger) *Auditor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Auditor{log: logger.WithField("component", "audit")}
}

// Run audits inv and returns one finding per violation plus the utilization of every rack
func (a *Auditor) Run(inv *topology.Inventory, source string) *Report {
	start := time.Now()
	report := &Report{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: start.UTC(),
		Findings:  []Finding{},
		Racks:     []RackUtilization{},
	}
	for _, obj := range models.All() {
		report.Objects += inv.Count(obj.ObjectType())
	}

	check := func(obj models.Object, label string, err error) {
		if err == nil {
			return
		}
		report.add(obj, label, err)
	}

	for _, loc := range inv.Locations() {
		check(loc, loc.Name, topology.CleanLocation(inv, loc))
	}
	for _, rack := range inv.Racks() {
		check(rack, rack.Name, topology.CleanRack(inv, rack))
	}
	for _, res := range inv.RackReservations() {
		check(res, "", topology.CleanRackReservation(inv, res))
	}
	for _, panel := range inv.PowerPanels() {
		check(panel, panel.Name, topology.CleanPowerPanel(inv, panel))
	}
	for _, cluster := range inv.Clusters() {
		check(cluster, cluster.Name, topology.CleanCluster(inv, cluster))
	}
	for _, dt := range inv.DeviceTypes() {
		check(dt, dt.Model, topology.CleanDeviceType(inv, dt))
	}
	for _, d := range inv.Devices() {
		check(d, d.String(), topology.CleanDevice(inv, d))
	}
	for _, bay := range inv.ModuleBays() {
		check(bay, bay.Name, topology.CleanModuleBay(inv, bay))
	}
	for _, m := range inv.Modules() {
		check(m, m.String(), topology.CleanModule(inv, m))
	}
	for _, term := range terminations(inv) {
		check(term, "", topology.CleanTermination(inv, term))
	}
	for _, cable := range inv.Cables() {
		check(cable, cable.String(), topology.CleanCable(inv, cable))
	}
	for _, mac := range inv.MACAddresses() {
		check(mac, mac.MACAddress, topology.CleanMACAddress(inv, mac))
	}
	a.checkCachedPlacement(inv, report)

	for _, rack := range inv.Racks() {
		pct, err := topology.Utilization(inv, rack)
		if err != nil {
			report.add(rack, rack.Name, err)
			continue
		}
		site := ""
		if s, ok := inv.Site(rack.SiteID); ok {
			site = s.Name
		}
		report.Racks = append(report.Racks, RackUtilization{
			RackID:  rack.ID,
			Rack:    rack.Name,
			Site:    site,
			Percent: pct,
		})
	}

	report.Duration = time.Since(start)
	a.log.WithFields(logrus.Fields{
		"report":   report.ID,
		"source":   source,
		"objects":  report.Objects,
		"findings": len(report.Findings),
	}).Info("audit finished")
	return report
}

// checkCachedPlacement flags cable termination rows whose cached placement no longer
// matches their parent
func (a *Auditor) checkCachedPlacement(inv *topology.Inventory, report *Report) {
	for _, ct := range inv.CableTerminations() {
		term, err := inv.Termination(ct.Termination())
		if err != nil {
			report.add(ct, "", err)
			continue
		}
		if siteID := topology.SiteOf(inv, term); !models.SameID(ct.SiteID, siteID) {
			report.Findings = append(report.Findings, Finding{
				ObjectType: ct.ObjectType(),
				ObjectID:   ct.ID,
				Object:     ct.Termination().String(),
				Field:      "site",
				Message:    "Cached site does not match the termination's parent.",
			})
		}
	}
}

func (r *Report) add(obj models.Object, label string, err error) {
	verr, ok := topology.AsValidationError(err)
	if !ok {
		r.Findings = append(r.Findings, Finding{
			ObjectType: obj.ObjectType(),
			ObjectID:   obj.GetID(),
			Object:     label,
			Field:      constants.NonFieldErrors,
			Message:    err.Error(),
		})
		return
	}
	for _, field := range verr.FieldNames() {
		for _, msg := range verr.Fields[field] {
			r.Findings = append(r.Findings, Finding{
				ObjectType: obj.ObjectType(),
				ObjectID:   obj.GetID(),
				Object:     label,
				Field:      field,
				Message:    msg,
			})
		}
	}
}

// terminations lists every cable termination kind in a fixed order
func terminations(inv *topology.Inventory) []models.Termination {
	var out []models.Termination
	for _, typ := range []string{
		constants.TerminationInterface,
		constants.TerminationFrontPort,
		constants.TerminationRearPort,
		constants.TerminationPowerPort,
		constants.TerminationPowerOutlet,
		constants.TerminationConsolePort,
		constants.TerminationConsoleServerPort,
		constants.TerminationPowerFeed,
		constants.TerminationCircuit,
	} {
		out = append(out, inv.TerminationsOfType(typ)...)
	}
	return out
}
