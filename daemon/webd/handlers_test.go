package webd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotblauer/gneiss/api"
	"github.com/rotblauer/gneiss/catdb/flat"
	"github.com/rotblauer/gneiss/enrich"
	"github.com/rotblauer/gneiss/fossil"
	"github.com/rotblauer/gneiss/macrostrat"
	"github.com/rotblauer/gneiss/params"
	"github.com/rotblauer/gneiss/types/trackpoint"
	"github.com/tidwall/gjson"
)

const testGPX = `<?xml version="1.0"?>
<gpx version="1.1" creator="test">
  <trk><trkseg>
    <trkpt lat="40.0" lon="-105.0"><ele>1600</ele><time>2024-01-01T00:00:00Z</time></trkpt>
    <trkpt lat="40.01" lon="-105.0"><ele>1610</ele><time>2024-01-01T00:01:00Z</time></trkpt>
    <trkpt lat="40.02" lon="-105.0"><ele>1620</ele><time>2024-01-01T00:02:00Z</time></trkpt>
  </trkseg></trk>
</gpx>`

var fountain = &trackpoint.GeoUnit{
	UnitID:        7,
	FormationName: "Fountain",
	Interval:      "Pennsylvanian",
	Lithology:     "sandstone",
	AgeColor:      "#99C2B5",
	LithColor:     "#FFD700",
	AgeStart:      323,
	AgeEnd:        299,
}

type fakeFossils struct{}

func (fakeFossils) Fossils(ctx context.Context, q fossil.Query) []fossil.Occurrence {
	return []fossil.Occurrence{
		{OccurrenceID: 1, TaxonName: "Calamites", Kingdom: fossil.Plant},
		{OccurrenceID: 2, TaxonName: "Spirifer", Kingdom: fossil.Invertebrate},
	}
}

func newTestWebDaemon(t *testing.T, lookup macrostrat.Lookup) (*WebDaemon, *httptest.Server) {
	t.Helper()
	if lookup == nil {
		lookup = macrostrat.LookupFunc(func(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error) {
			return fountain, nil
		})
	}
	config := params.DefaultTestWebDaemonConfig()
	config.DataDir = t.TempDir()
	rides := api.NewRides(flat.NewFlatWithRoot(config.DataDir),
		enrich.NewEnricher(lookup, config.Enrich), fakeFossils{})
	d, err := NewWebDaemon(config, rides)
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(d.NewRouter())
	t.Cleanup(func() {
		server.Close()
		d.Close()
	})
	return d, server
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func upload(t *testing.T, server *httptest.Server, filename, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(server.URL+"/rides?filename="+filename, "application/octet-stream", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp, readBody(t, resp)
}

func TestWebDaemon_ping(t *testing.T) {
	req := httptest.NewRequest("GET", "http://localhost/ping", nil)
	w := httptest.NewRecorder()
	pingPong(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("status code not 200")
	}
	if string(body) != "pong" {
		t.Errorf("body is not pong: %s", string(body))
	}
}

func TestWebDaemon_statusReport(t *testing.T) {
	_, server := newTestWebDaemon(t, nil)
	resp, err := http.Get(server.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	status := webDaemonStatus{}
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatal(err)
	}
	if status.Uptime == "" {
		t.Error("uptime is empty")
	}
	if _, ok := status.Metrics["geology.lookups"]; !ok {
		t.Errorf("missing geology metrics: %s", body)
	}
}

func TestWebDaemon_uploadAndGet(t *testing.T) {
	_, server := newTestWebDaemon(t, nil)
	resp, body := upload(t, server, "evening.gpx", testGPX)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %s", ct)
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" || gjson.GetBytes(body, "name").String() != "evening" {
		t.Fatalf("unexpected response %s", body)
	}
	if n := gjson.GetBytes(body, "collection.features.#").Int(); n != 3 {
		t.Errorf("expected 3 features, got %d", n)
	}
	if c := gjson.GetBytes(body, "collection.features.0.properties.color").String(); c != "#99C2B5" {
		t.Errorf("unexpected age color %s", c)
	}

	resp, err := http.Get(server.URL + "/rides/" + id + "?colorMode=lithology&units=imperial")
	if err != nil {
		t.Fatal(err)
	}
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if c := gjson.GetBytes(body, "collection.features.0.properties.color").String(); c != "#FFD700" {
		t.Errorf("unexpected lithology color %s", c)
	}
	if c := gjson.GetBytes(body, "summary.legend.0.color").String(); c != "#FFD700" {
		t.Errorf("unexpected legend color %s", c)
	}

	resp, err = http.Get(server.URL + "/rides")
	if err != nil {
		t.Fatal(err)
	}
	if ids := gjson.ParseBytes(readBody(t, resp)).Array(); len(ids) != 1 || ids[0].String() != id {
		t.Errorf("unexpected ride list %v", ids)
	}
}

func TestWebDaemon_uploadMultipart(t *testing.T) {
	_, server := newTestWebDaemon(t, nil)
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", "commute.GPX")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(testGPX))
	_ = mw.Close()

	resp, err := http.Post(server.URL+"/rides", mw.FormDataContentType(), buf)
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if name := gjson.GetBytes(body, "name").String(); name != "commute" {
		t.Errorf("unexpected name %s", name)
	}
}

func TestWebDaemon_uploadErrors(t *testing.T) {
	d, server := newTestWebDaemon(t, nil)

	resp, body := upload(t, server, "ride.tcx", "<TrainingCenterDatabase></TrainingCenterDatabase>")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(string(body), "Invalid TCX file: ") {
		t.Errorf("unexpected message %q", body)
	}

	resp, _ = upload(t, server, "", testGPX)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing filename, got %d", resp.StatusCode)
	}

	resp, _ = upload(t, server, "ride.gpx&units=furlongs", testGPX)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad units, got %d", resp.StatusCode)
	}

	// In process; a real client may see the connection reset before the response.
	req := httptest.NewRequest(http.MethodPost, "/rides?filename=huge.gpx",
		strings.NewReader(strings.Repeat(" ", int(d.Config.MaxUploadBytes)+1)))
	w := httptest.NewRecorder()
	d.NewRouter().ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestWebDaemon_uploadLookupFailure(t *testing.T) {
	_, server := newTestWebDaemon(t, macrostrat.LookupFunc(func(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error) {
		return nil, errors.New("connection refused")
	}))
	resp, _ := upload(t, server, "ride.gpx", testGPX)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestWebDaemon_uploadToken(t *testing.T) {
	t.Setenv(UploadTokenEnv, "s3cret")
	_, server := newTestWebDaemon(t, nil)

	resp, _ := upload(t, server, "ride.gpx", testGPX)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
	resp, _ = upload(t, server, "ride.gpx&api_token=s3cre", testGPX)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for wrong token, got %d", resp.StatusCode)
	}
	resp, _ = upload(t, server, "ride.gpx&api_token=s3cret", testGPX)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWebDaemon_rideNotFound(t *testing.T) {
	_, server := newTestWebDaemon(t, nil)
	for _, path := range []string{"/rides/nope", "/rides/nope/density", "/rides/nope/fossils?point=0"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		readBody(t, resp)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestWebDaemon_fossils(t *testing.T) {
	_, server := newTestWebDaemon(t, nil)
	_, body := upload(t, server, "ride.gpx", testGPX)
	id := gjson.GetBytes(body, "id").String()

	resp, err := http.Get(server.URL + "/rides/" + id + "/fossils?point=1&kingdom=plant")
	if err != nil {
		t.Fatal(err)
	}
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	occs := gjson.ParseBytes(body).Array()
	if len(occs) != 1 || occs[0].Get("taxonName").String() != "Calamites" {
		t.Fatalf("unexpected fossils %s", body)
	}
	if u := occs[0].Get("imageUrl").String(); !strings.Contains(u, "Calamites+Fountain") {
		t.Errorf("unexpected image url %s", u)
	}

	resp, err = http.Get(server.URL + "/rides/" + id + "/fossils?point=9")
	if err != nil {
		t.Fatal(err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for out of range point, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/rides/" + id + "/density")
	if err != nil {
		t.Fatal(err)
	}
	body = readBody(t, resp)
	if c := gjson.GetBytes(body, "counts.Fountain").Int(); c != 2 {
		t.Errorf("unexpected counts %s", body)
	}
	if n := gjson.GetBytes(body, "density.#").Int(); n != 1 {
		t.Errorf("unexpected density %s", body)
	}
}

func TestWebDaemon_adHocFossils(t *testing.T) {
	_, server := newTestWebDaemon(t, nil)
	resp, err := http.Get(server.URL + "/fossils?lat=40&lon=-105&ageStart=323&ageEnd=299&kingdom=all")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if n := len(gjson.ParseBytes(body).Array()); resp.StatusCode != http.StatusOK || n != 2 {
		t.Errorf("unexpected response %d %s", resp.StatusCode, body)
	}

	for _, q := range []string{"lat=x&lon=-105&ageStart=1&ageEnd=2", "lat=40&lon=-105&ageStart=1&ageEnd=2&kingdom=fungi", "lat=40&lon=-105&ageStart=1&ageEnd=2&buffer=-1",
		"lat=NaN&lon=0&ageStart=1&ageEnd=2",
		"lat=40&lon=Inf&ageStart=1&ageEnd=2",
		"lat=40&lon=-105&ageStart=1&ageEnd=-Inf",
		"lat=40&lon=-105&ageStart=1&ageEnd=2&buffer=NaN",
	} {
		resp, err := http.Get(server.URL + "/fossils?" + q)
		if err != nil {
			t.Fatal(err)
		}
		readBody(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}
