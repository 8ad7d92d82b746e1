package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/audit"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/topology"
)

// ReportStore persists audit reports
type ReportStore interface {
	Save(ctx context.Context, report *audit.Report) error
	Get(ctx context.Context, id string) (*audit.Report, error)
	List(ctx context.Context, limit int) ([]*audit.Report, error)
}

// kinds maps URL segments to object types
var kinds = map[string]string{
	"sites":                constants.ObjectSite,
	"locations":            constants.ObjectLocation,
	"racks":                constants.ObjectRack,
	"rack-reservations":    constants.ObjectRackReservation,
	"power-panels":         constants.ObjectPowerPanel,
	"power-feeds":          constants.ObjectPowerFeed,
	"clusters":             constants.ObjectCluster,
	"device-types":         constants.ObjectDeviceType,
	"module-types":         constants.ObjectModuleType,
	"devices":              constants.ObjectDevice,
	"module-bays":          constants.ObjectModuleBay,
	"modules":              constants.ObjectModule,
	"interfaces":           constants.TerminationInterface,
	"front-ports":          constants.TerminationFrontPort,
	"rear-ports":           constants.TerminationRearPort,
	"power-ports":          constants.TerminationPowerPort,
	"power-outlets":        constants.TerminationPowerOutlet,
	"console-ports":        constants.TerminationConsolePort,
	"console-server-ports": constants.TerminationConsoleServerPort,
	"circuits":             constants.ObjectCircuit,
	"provider-networks":    constants.ObjectProviderNetwork,
	"circuit-terminations": constants.TerminationCircuit,
	"cables":               constants.ObjectCable,
	"cable-terminations":   constants.ObjectCableTermination,
	"mac-addresses":        constants.ObjectMACAddress,
}

// HTTP exposes the engine under /api/v1
type HTTP struct {
	engine  *topology.Engine
	auditor *audit.Auditor
	reports ReportStore
	log     logrus.FieldLogger
}

// NewHTTP creates the handlers. reports may be nil; audits are then returned but not kept.
func NewHTTP(engine *topology.Engine, auditor *audit.Auditor, reports ReportStore, logger logrus.FieldLogger) *HTTP {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTP{engine: engine, auditor: auditor, reports: reports, log: logger.WithField("component", "api")}
}

// NewRouter builds a router with the request id, recovery and logging middleware
func NewRouter(h *HTTP) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(Recoverer(h.log))
	r.Use(Logger(h.log))
	h.RegisterRoutes(r)
	return r
}

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// GET /api/v1/racks/{id}/elevation?face=front&exclude=1,2
	api.HandleFunc("/racks/{id:[0-9]+}/elevation", h.elevation).Methods(http.MethodGet)
	// GET /api/v1/racks/{id}/available-units?u_height=2&face=front
	api.HandleFunc("/racks/{id:[0-9]+}/available-units", h.availableUnits).Methods(http.MethodGet)
	api.HandleFunc("/racks/{id:[0-9]+}/utilization", h.utilization).Methods(http.MethodGet)

	// GET /api/v1/terminations/dcim.interface/{id}/peers
	api.HandleFunc("/terminations/{type}/{id:[0-9]+}/peers", h.linkPeers).Methods(http.MethodGet)

	api.HandleFunc("/cables/{id:[0-9]+}", h.deleteCable).Methods(http.MethodDelete)

	api.HandleFunc("/audits", h.runAudit).Methods(http.MethodPost)
	api.HandleFunc("/reports", h.listReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", h.getReport).Methods(http.MethodGet)

	api.HandleFunc("/{kind}", h.list).Methods(http.MethodGet)
	api.HandleFunc("/{kind}", h.create).Methods(http.MethodPost)
	api.HandleFunc("/{kind}/{id:[0-9]+}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{kind}/{id:[0-9]+}", h.update).Methods(http.MethodPut)
}

func (h *HTTP) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func kindOf(w http.ResponseWriter, r *http.Request) (string, bool) {
	kind := mux.Vars(r)["kind"]
	objectType, ok := kinds[kind]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("unknown object kind %q", kind)})
		return "", false
	}
	return objectType, true
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) {
	objectType, ok := kindOf(w, r)
	if !ok {
		return
	}
	var objects []models.Object
	err := h.engine.Snapshot(r.Context(), func(inv *topology.Inventory) error {
		objects = inv.All(objectType)
		return nil
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, objects)
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) {
	objectType, ok := kindOf(w, r)
	if !ok {
		return
	}
	id, _ := pathID(r, "id")
	var obj models.Object
	err := h.engine.Snapshot(r.Context(), func(inv *topology.Inventory) error {
		found, ok := inv.Get(models.ObjectRef{Type: objectType, ID: id})
		if !ok {
			return fmt.Errorf("%s %d: %w", objectType, id, topology.ErrNotFound)
		}
		obj = found
		return nil
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

// saveResponse carries the saved object and, for racks and locations, the rows the
// change cascaded to
type saveResponse struct {
	Object  models.Object            `json:"object"`
	Cascade *topology.CascadeResult `json:"cascade,omitempty"`
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0, http.StatusCreated)
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	h.save(w, r, id, http.StatusOK)
}

func (h *HTTP) save(w http.ResponseWriter, r *http.Request, id uint, status int) {
	objectType, ok := kindOf(w, r)
	if !ok {
		return
	}
	obj, _ := models.New(objectType)
	if err := json.NewDecoder(r.Body).Decode(obj); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	obj.SetID(id)

	cascade, err := save(r.Context(), h.engine, obj)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, status, saveResponse{Object: obj, Cascade: cascade})
}

// save dispatches obj to the engine operation of its kind
func save(ctx context.Context, e *topology.Engine, obj models.Object) (*topology.CascadeResult, error) {
	switch o := obj.(type) {
	case *models.Site:
		return nil, e.SaveSite(ctx, o)
	case *models.Location:
		return e.SaveLocation(ctx, o)
	case *models.Rack:
		return e.SaveRack(ctx, o)
	case *models.RackReservation:
		return nil, e.SaveRackReservation(ctx, o)
	case *models.PowerPanel:
		return nil, e.SavePowerPanel(ctx, o)
	case *models.PowerFeed:
		return nil, e.SavePowerFeed(ctx, o)
	case *models.Cluster:
		return nil, e.SaveCluster(ctx, o)
	case *models.DeviceType:
		return nil, e.SaveDeviceType(ctx, o)
	case *models.ModuleType:
		return nil, e.SaveModuleType(ctx, o)
	case *models.Device:
		return nil, e.SaveDevice(ctx, o)
	case *models.ModuleBay:
		return nil, e.SaveModuleBay(ctx, o)
	case *models.Module:
		return nil, e.SaveModule(ctx, o)
	case *models.Circuit:
		return nil, e.SaveCircuit(ctx, o)
	case *models.ProviderNetwork:
		return nil, e.SaveProviderNetwork(ctx, o)
	case *models.Cable:
		return nil, e.SaveCable(ctx, o)
	case *models.MACAddress:
		return nil, e.SaveMACAddress(ctx, o)
	case models.Termination:
		return nil, e.SaveTermination(ctx, o)
	}
	verr := topology.NewValidationError()
	verr.Add(constants.NonFieldErrors, "%s objects are maintained by the engine", obj.ObjectType())
	return nil, verr
}

func (h *HTTP) deleteCable(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	cable, err := h.engine.DeleteCable(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": cable.String()})
}

func (h *HTTP) elevation(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	exclude, err := idList(r.URL.Query().Get("exclude"))
	if err != nil {
		badRequest(w, "invalid exclude list")
		return
	}
	face := r.URL.Query().Get("face")
	if face == "" {
		face = constants.FaceFront
	}
	units, err := h.engine.RackElevation(r.Context(), id, face, exclude)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *HTTP) availableUnits(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	q := r.URL.Query()

	uHeight := 1.0
	if s := q.Get("u_height"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			badRequest(w, "invalid u_height")
			return
		}
		uHeight = v
	}
	exclude, err := idList(q.Get("exclude"))
	if err != nil {
		badRequest(w, "invalid exclude list")
		return
	}

	units, err := h.engine.AvailableUnits(r.Context(), id, uHeight, q.Get("face"), exclude)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if units == nil {
		units = []float64{}
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *HTTP) utilization(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	pct, err := h.engine.Utilization(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rack": id, "utilization": pct})
}

type peer struct {
	models.ObjectRef
	Object models.Termination `json:"object"`
}

func (h *HTTP) linkPeers(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	ref := models.ObjectRef{Type: mux.Vars(r)["type"], ID: id}
	terms, err := h.engine.LinkPeers(r.Context(), ref)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	peers := make([]peer, 0, len(terms))
	for _, t := range terms {
		peers = append(peers, peer{ObjectRef: models.RefOf(t), Object: t})
	}
	writeJSON(w, http.StatusOK, peers)
}

func (h *HTTP) runAudit(w http.ResponseWriter, r *http.Request) {
	var report *audit.Report
	err := h.engine.Snapshot(r.Context(), func(inv *topology.Inventory) error {
		report = h.auditor.Run(inv, "store")
		return nil
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if h.reports != nil {
		if err := h.reports.Save(r.Context(), report); err != nil {
			writeError(w, r, h.log, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *HTTP) listReports(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeJSON(w, http.StatusOK, []*audit.Report{})
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			badRequest(w, "invalid limit")
			return
		}
		limit = v
	}
	reports, err := h.reports.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *HTTP) getReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "report store not configured"})
		return
	}
	report, err := h.reports.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
