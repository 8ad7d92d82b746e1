package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/utils"
)

// fakeNetBox serves list endpoints from fixtures, two objects per page
type fakeNetBox struct {
	t        *testing.T
	data     map[string][]Object
	requests []string
}

func (f *fakeNetBox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests = append(f.requests, r.URL.RequestURI())
	if r.Header.Get("Authorization") != "Token secret" {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "Invalid token"}`))
		return
	}

	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	objects := f.data[path]
	if siteID := r.URL.Query().Get("site_id"); siteID != "" {
		var kept []Object
		for _, obj := range objects {
			if strconv.Itoa(int(utils.IDOf(obj["site"]))) == siteID {
				kept = append(kept, obj)
			}
		}
		objects = kept
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	end := min(offset+2, len(objects))
	page := map[string]interface{}{
		"count":   len(objects),
		"results": objects[offset:end],
		"next":    nil,
	}
	if end < len(objects) {
		q := r.URL.Query()
		q.Set("offset", strconv.Itoa(end))
		page["next"] = "http://" + r.Host + r.URL.Path + "?" + q.Encode()
	}
	if err := json.NewEncoder(w).Encode(page); err != nil {
		f.t.Errorf("encode: %v", err)
	}
}

func newFake(t *testing.T, data map[string][]Object) (*NetBoxClient, *fakeNetBox) {
	t.Helper()
	fake := &fakeNetBox{t: t, data: data}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "secret", Options{}, utils.NewLogger(false)), fake
}

func ref(id float64) map[string]interface{} {
	return map[string]interface{}{"id": id}
}

func choice(value string) map[string]interface{} {
	return map[string]interface{}{"value": value, "label": strings.ToUpper(value)}
}

func fixtures() map[string][]Object {
	return map[string][]Object{
		"dcim/sites": {
			{"id": 1.0, "name": "Berlin", "slug": "berlin", "status": choice("active")},
			{"id": 2.0, "name": "Hamburg", "slug": "hamburg", "status": choice("active")},
		},
		"dcim/racks": {
			{"id": 10.0, "name": "R1", "site": ref(1), "u_height": 42.0, "starting_unit": 1.0, "width": choice("19")},
			{"id": 11.0, "name": "R2", "site": ref(2), "u_height": 42.0, "starting_unit": 1.0},
		},
		"dcim/device-types": {
			{"id": 5.0, "model": "Switch", "slug": "switch", "manufacturer": map[string]interface{}{"id": 1.0, "name": "ACME"}, "u_height": 1.0, "is_full_depth": true},
		},
		"virtualization/clusters": {
			{"id": 7.0, "name": "k8s", "scope_type": "dcim.site", "scope_id": 1.0},
			{"id": 8.0, "name": "k8s-hh", "scope_type": "dcim.site", "scope_id": 2.0},
		},
		"dcim/devices": {
			{"id": 20.0, "name": "sw1", "site": ref(1), "rack": ref(10), "device_type": ref(5), "position": 1.0, "face": choice("front"), "cluster": ref(7)},
			{"id": 21.0, "name": "sw2", "site": ref(1), "rack": ref(10), "device_type": ref(5), "position": 2.0, "face": choice("front")},
			{"id": 22.0, "name": "sw3", "site": ref(2), "rack": ref(11), "device_type": ref(5), "position": 1.0, "face": choice("front")},
		},
		"dcim/interfaces": {
			{"id": 30.0, "name": "eth0", "site": ref(1), "device": ref(20), "type": choice("1000base-t"), "enabled": true, "cable": ref(40), "cable_end": "A", "primary_mac_address": ref(50)},
			{"id": 31.0, "name": "eth0", "site": ref(1), "device": ref(21), "type": choice("1000base-t"), "enabled": true, "cable": ref(40), "cable_end": "B"},
			{"id": 32.0, "name": "eth1", "site": ref(1), "device": ref(21), "type": choice("1000base-t"), "enabled": true, "cable": ref(41), "cable_end": "A"},
			{"id": 33.0, "name": "eth0", "site": ref(2), "device": ref(22), "type": choice("1000base-t"), "enabled": true, "cable": ref(41), "cable_end": "B"},
		},
		"dcim/cables": {
			{
				"id": 40.0, "site": ref(1), "type": "cat6", "status": choice("connected"), "length": 2.5, "length_unit": choice("m"),
				"a_terminations": []interface{}{map[string]interface{}{"object_type": "dcim.interface", "object_id": 30.0}},
				"b_terminations": []interface{}{map[string]interface{}{"object_type": "dcim.interface", "object_id": 31.0}},
			},
			{
				"id": 41.0, "site": ref(1), "type": "cat6", "status": choice("connected"),
				"a_terminations": []interface{}{map[string]interface{}{"object_type": "dcim.interface", "object_id": 32.0}},
				"b_terminations": []interface{}{map[string]interface{}{"object_type": "dcim.interface", "object_id": 33.0}},
			},
		},
		"dcim/mac-addresses": {
			{"id": 50.0, "mac_address": "AA:BB:CC:00:00:01", "assigned_object_type": "dcim.interface", "assigned_object_id": 30.0},
			{"id": 51.0, "mac_address": "AA:BB:CC:00:00:02", "assigned_object_type": "dcim.interface", "assigned_object_id": 33.0},
		},
	}
}

func TestListFollowsNextLinks(t *testing.T) {
	data := map[string][]Object{"dcim/sites": {}}
	for i := 1; i <= 5; i++ {
		data["dcim/sites"] = append(data["dcim/sites"], Object{"id": float64(i), "slug": "s" + strconv.Itoa(i)})
	}
	c, fake := newFake(t, data)

	objects, err := c.Filter(context.Background(), "dcim", "sites", map[string]interface{}{"status": "active"})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(objects) != 5 {
		t.Errorf("Filter() returned %d objects, expected 5", len(objects))
	}
	if len(fake.requests) != 3 {
		t.Errorf("made %d requests, expected 3", len(fake.requests))
	}
	if !strings.Contains(fake.requests[0], "status=active") || !strings.Contains(fake.requests[0], "limit=250") {
		t.Errorf("first request = %q, expected the filter and page size", fake.requests[0])
	}
}

func TestRequestReturnsAPIError(t *testing.T) {
	c, _ := newFake(t, fixtures())
	c.token = "wrong"

	_, err := c.List(context.Background(), "/api/dcim/sites/", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("List() error = %v, expected an APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, expected 403", apiErr.StatusCode)
	}
}

func TestSiteIDCachesSlugs(t *testing.T) {
	c, fake := newFake(t, fixtures())
	ctx := context.Background()

	id, err := c.Cache().SiteID(ctx, "hamburg")
	if err != nil || id != 2 {
		t.Fatalf("SiteID() = %d, %v; expected 2", id, err)
	}
	if _, err := c.Cache().SiteID(ctx, "berlin"); err != nil {
		t.Fatalf("SiteID() error = %v", err)
	}
	if len(fake.requests) != 1 {
		t.Errorf("made %d requests, expected the second lookup to hit the cache", len(fake.requests))
	}
	if id, ok := c.Cache().GetID("sites", "Berlin"); !ok || id != 1 {
		t.Errorf("GetID(Berlin) = %d, %v; expected names to be cached next to slugs", id, ok)
	}
	if _, err := c.Cache().SiteID(ctx, "paris"); err == nil {
		t.Error("SiteID() expected an error for an unknown site")
	}
}

func TestFetchInventory(t *testing.T) {
	c, _ := newFake(t, fixtures())

	inv, err := c.FetchInventory(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchInventory() error = %v", err)
	}

	if n := len(inv.Devices()); n != 3 {
		t.Errorf("devices = %d, expected 3", n)
	}
	if n := len(inv.CableTerminations()); n != 4 {
		t.Errorf("cable terminations = %d, expected 4", n)
	}

	sw1, ok := inv.Device(20)
	if !ok {
		t.Fatal("device 20 not fetched")
	}
	if sw1.Face != constants.FaceFront || sw1.Position == nil || *sw1.Position != 1 {
		t.Errorf("sw1 placement = %s/%v", sw1.Face, sw1.Position)
	}

	rack, _ := inv.Rack(10)
	if rack.Width != 19 || rack.UHeight != 42 {
		t.Errorf("rack = width %d height %d", rack.Width, rack.UHeight)
	}

	dt, _ := inv.DeviceType(5)
	if dt.Manufacturer != "ACME" || dt.UHeight != 1 {
		t.Errorf("device type = %s %v", dt.Manufacturer, dt.UHeight)
	}

	cluster, _ := inv.Cluster(7)
	if cluster.SiteID == nil || *cluster.SiteID != 1 {
		t.Errorf("cluster site = %v, expected 1", cluster.SiteID)
	}

	eth0, _ := inv.Interface(30)
	if eth0.CableID == nil || *eth0.CableID != 40 || eth0.CableEnd != constants.CableEndA {
		t.Errorf("eth0 cable = %v/%s", eth0.CableID, eth0.CableEnd)
	}

	ct, ok := inv.CableTerminationFor(models.ObjectRef{Type: constants.TerminationInterface, ID: 31})
	if !ok {
		t.Fatal("no termination row for interface 31")
	}
	if ct.CableID != 40 || ct.DeviceID == nil || *ct.DeviceID != 21 || ct.RackID == nil || *ct.RackID != 10 {
		t.Errorf("termination row = %+v", ct)
	}

	mac, _ := inv.MACAddress(50)
	if mac.MACAddress != "AA:BB:CC:00:00:01" {
		t.Errorf("mac = %q", mac.MACAddress)
	}
}

func TestFetchInventoryForSite(t *testing.T) {
	c, _ := newFake(t, fixtures())

	inv, err := c.FetchInventory(context.Background(), "berlin")
	if err != nil {
		t.Fatalf("FetchInventory() error = %v", err)
	}

	if n := len(inv.Sites()); n != 1 {
		t.Errorf("sites = %d, expected 1", n)
	}
	if n := len(inv.Devices()); n != 2 {
		t.Errorf("devices = %d, expected 2", n)
	}
	if n := len(inv.Clusters()); n != 1 {
		t.Errorf("clusters = %d, expected 1", n)
	}
	// cable 41 ends in Hamburg
	if n := len(inv.Cables()); n != 1 {
		t.Errorf("cables = %d, expected 1", n)
	}
	if _, ok := inv.MACAddress(51); ok {
		t.Error("MAC of a Hamburg interface should be dropped")
	}
}
