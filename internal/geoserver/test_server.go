package geoserver

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/publibase/publibase/internal"
)

// testBasePath is the path GeoServer is deployed to in the test server.
const testBasePath = "/geoserver"

type (
	// TestServer is an in-memory fake of the GeoServer REST API, serving the
	// subset of the API used by the client.
	TestServer struct {
		*httptest.Server
		*testdb

		mu       sync.Mutex
		user     string
		password string
		// failures maps "METHOD /rest/path" to a status code to respond with
		failures map[string]int
		// render default style workspaces separately from the style name
		legacyStyleRefs bool
		requests        []string
	}

	TestServerOption func(*TestServer)

	testdb struct {
		workspaces map[string]*testWorkspace
	}

	testWorkspace struct {
		styles map[string][]byte
		stores map[string]map[string]*FeatureType
		// layer name to qualified default style name
		layers map[string]string
	}
)

func WithBasicAuth(user, password string) TestServerOption {
	return func(srv *TestServer) {
		srv.user = user
		srv.password = password
	}
}

func WithWorkspace(name string) TestServerOption {
	return func(srv *TestServer) {
		srv.workspace(name)
	}
}

func WithStyle(workspace, name string, sld []byte) TestServerOption {
	return func(srv *TestServer) {
		srv.workspace(workspace).styles[name] = sld
	}
}

// WithStore creates an empty data store.
func WithStore(workspace, store string) TestServerOption {
	return func(srv *TestServer) {
		srv.store(workspace, store)
	}
}

// WithFeatureType publishes a feature type along with its layer, the layer
// using the given default style.
func WithFeatureType(workspace, store string, ft FeatureType, defaultStyle string) TestServerOption {
	return func(srv *TestServer) {
		if ft.NativeName == "" {
			ft.NativeName = ft.Name
		}
		if ft.Advertised == nil {
			ft.Advertised = internal.Ptr(true)
		}
		srv.store(workspace, store)[ft.Name] = &ft
		srv.workspace(workspace).layers[ft.Name] = defaultStyle
	}
}

// WithFailure responds with the status code to a request matching the method
// and path, where the path is relative to the REST API, e.g.
// /workspaces/cite/styles/roads.sld
func WithFailure(method, path string, code int) TestServerOption {
	return func(srv *TestServer) {
		srv.failures[method+" "+path] = code
	}
}

// WithLegacyStyleRefs renders the workspace of a layer's default style as a
// separate field, as older GeoServer versions do.
func WithLegacyStyleRefs() TestServerOption {
	return func(srv *TestServer) {
		srv.legacyStyleRefs = true
	}
}

func NewTestServer(t *testing.T, opts ...TestServerOption) *TestServer {
	srv := &TestServer{
		testdb:   &testdb{workspaces: make(map[string]*testWorkspace)},
		failures: make(map[string]int),
	}
	for _, fn := range opts {
		fn(srv)
	}

	r := mux.NewRouter()
	r.Use(srv.middleware)
	rest := r.PathPrefix(testBasePath + "/rest").Subrouter()
	rest.HandleFunc("/workspaces", srv.createWorkspace).Methods("POST")
	rest.HandleFunc("/workspaces/{workspace}/styles", srv.listStyles).Methods("GET")
	rest.HandleFunc("/workspaces/{workspace}/styles", srv.uploadStyle).Methods("POST")
	rest.HandleFunc("/workspaces/{workspace}/styles/{style}", srv.getStyle).Methods("GET")
	rest.HandleFunc("/workspaces/{workspace}/styles/{style}", srv.deleteStyle).Methods("DELETE")
	rest.HandleFunc("/workspaces/{workspace}/datastores/{store}/featuretypes", srv.listFeatureTypes).Methods("GET")
	rest.HandleFunc("/workspaces/{workspace}/datastores/{store}/featuretypes", srv.createFeatureType).Methods("POST")
	rest.HandleFunc("/workspaces/{workspace}/datastores/{store}/featuretypes/{name}", srv.getFeatureType).Methods("GET")
	rest.HandleFunc("/workspaces/{workspace}/datastores/{store}/featuretypes/{name}", srv.updateFeatureType).Methods("PUT")
	rest.HandleFunc("/layers/{layer}", srv.getLayer).Methods("GET")
	rest.HandleFunc("/layers/{layer}", srv.updateLayer).Methods("PUT")

	srv.Server = httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// GeoServerURL is the URL of the web admin interface of the test server, as a
// user would copy it from their browser.
func (s *TestServer) GeoServerURL() string {
	return s.URL + testBasePath + "/web/"
}

// Requests returns the method and REST path of every request received.
func (s *TestServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requests)
}

func (s *TestServer) HasWorkspace(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.workspaces[name]
	return ok
}

// Styles returns the sorted names of the styles of a workspace.
func (s *TestServer) Styles(workspace string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[workspace]
	if !ok {
		return nil
	}
	return sortedKeys(ws.styles)
}

func (s *TestServer) StyleSLD(workspace, name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.workspaces[workspace]; ok {
		return ws.styles[name]
	}
	return nil
}

// FeatureType returns a feature type as GeoServer holds it.
func (s *TestServer) FeatureType(workspace, store, name string) (FeatureType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.workspaces[workspace]; ok {
		if ft, ok := ws.stores[store][name]; ok {
			// drop the element name left over from unmarshaling the request
			got := *ft
			got.XMLName = xml.Name{}
			return got, true
		}
	}
	return FeatureType{}, false
}

// LayerStyle returns the qualified name of the default style of a layer.
func (s *TestServer) LayerStyle(workspace, layer string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.workspaces[workspace]; ok {
		return ws.layers[layer]
	}
	return ""
}

func (s *TestServer) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, testBasePath+"/rest")

		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+path)
		code, fail := s.failures[r.Method+" "+path]
		s.mu.Unlock()

		if s.user != "" {
			if user, password, ok := r.BasicAuth(); !ok || user != s.user || password != s.password {
				http.Error(w, "HTTP ERROR 401 Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		if fail {
			http.Error(w, fmt.Sprintf("induced failure: %d", code), code)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// workspace retrieves a workspace, creating it if it doesn't exist.
func (db *testdb) workspace(name string) *testWorkspace {
	ws, ok := db.workspaces[name]
	if !ok {
		ws = &testWorkspace{
			styles: make(map[string][]byte),
			stores: make(map[string]map[string]*FeatureType),
			layers: make(map[string]string),
		}
		db.workspaces[name] = ws
	}
	return ws
}

// store retrieves a store, creating it if it doesn't exist.
func (db *testdb) store(workspace, name string) map[string]*FeatureType {
	ws := db.workspace(workspace)
	store, ok := ws.stores[name]
	if !ok {
		store = make(map[string]*FeatureType)
		ws.stores[name] = store
	}
	return store
}

func (s *TestServer) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var payload workspacePayload
	if err := xml.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := s.workspaces[payload.Name]; ok {
		http.Error(w, fmt.Sprintf("Workspace '%s' already exists", payload.Name), http.StatusConflict)
		return
	}
	s.workspace(payload.Name)
	w.WriteHeader(http.StatusCreated)
	io.WriteString(w, payload.Name)
}

func (s *TestServer) lookupWorkspace(w http.ResponseWriter, r *http.Request) (*testWorkspace, bool) {
	name := mux.Vars(r)["workspace"]
	ws, ok := s.workspaces[name]
	if !ok {
		http.Error(w, fmt.Sprintf("No such workspace: '%s'", name), http.StatusNotFound)
	}
	return ws, ok
}

func (s *TestServer) lookupStore(w http.ResponseWriter, r *http.Request) (*testWorkspace, map[string]*FeatureType, bool) {
	ws, ok := s.lookupWorkspace(w, r)
	if !ok {
		return nil, nil, false
	}
	name := mux.Vars(r)["store"]
	store, ok := ws.stores[name]
	if !ok {
		http.Error(w, fmt.Sprintf("No such datastore: %s", name), http.StatusNotFound)
	}
	return ws, store, ok
}

func (s *TestServer) listStyles(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.lookupWorkspace(w, r)
	if !ok {
		return
	}
	writeCollection(w, "styles", "style", sortedKeys(ws.styles))
}

func (s *TestServer) getStyle(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.lookupWorkspace(w, r)
	if !ok {
		return
	}
	name, isSLD := strings.CutSuffix(mux.Vars(r)["style"], ".sld")
	if !isSLD {
		http.Error(w, "only SLD representations are supported", http.StatusNotImplemented)
		return
	}
	sld, ok := ws.styles[name]
	if !ok {
		http.Error(w, fmt.Sprintf("No such style: %s", name), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.ogc.sld+xml")
	w.Write(sld)
}

func (s *TestServer) uploadStyle(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.lookupWorkspace(w, r)
	if !ok {
		return
	}
	if r.Header.Get("Content-Type") != "application/zip" {
		http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "style name is required", http.StatusBadRequest)
		return
	}
	if _, exists := ws.styles[name]; exists {
		http.Error(w, fmt.Sprintf("Style %s already exists", name), http.StatusForbidden)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sld, err := sldFromZip(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ws.styles[name] = sld
	w.WriteHeader(http.StatusCreated)
	io.WriteString(w, name)
}

func (s *TestServer) deleteStyle(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.lookupWorkspace(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["style"]
	if _, ok := ws.styles[name]; !ok {
		http.Error(w, fmt.Sprintf("No such style: %s", name), http.StatusNotFound)
		return
	}
	qualified := QualifiedStyleName(mux.Vars(r)["workspace"], name)
	recurse := r.URL.Query().Get("recurse") == "true"
	for _, other := range s.workspaces {
		for layer, style := range other.layers {
			if style != qualified {
				continue
			}
			if !recurse {
				http.Error(w, fmt.Sprintf("Can't delete style referenced by existing layers: %s", layer), http.StatusForbidden)
				return
			}
			other.layers[layer] = "generic"
		}
	}
	delete(ws.styles, name)
	w.WriteHeader(http.StatusOK)
}

func (s *TestServer) listFeatureTypes(w http.ResponseWriter, r *http.Request) {
	_, store, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	writeCollection(w, "featureTypes", "featureType", sortedKeys(store))
}

func (s *TestServer) getFeatureType(w http.ResponseWriter, r *http.Request) {
	_, store, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	ft, ok := store[mux.Vars(r)["name"]]
	if !ok {
		http.Error(w, "No such feature type", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, featureTypeEnvelope{FeatureType: *ft})
}

func (s *TestServer) createFeatureType(w http.ResponseWriter, r *http.Request) {
	ws, store, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	var ft FeatureType
	if err := xml.NewDecoder(r.Body).Decode(&ft); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ft.Name == "" {
		http.Error(w, "Feature type name is required", http.StatusBadRequest)
		return
	}
	if _, exists := store[ft.Name]; exists {
		// GeoServer reports a duplicate with an internal server error
		http.Error(w, fmt.Sprintf("Resource named '%s' already exists in store: '%s'", ft.Name, mux.Vars(r)["store"]), http.StatusInternalServerError)
		return
	}
	if ft.NativeName == "" {
		ft.NativeName = ft.Name
	}
	if ft.Advertised == nil {
		ft.Advertised = internal.Ptr(true)
	}
	store[ft.Name] = &ft
	ws.layers[ft.Name] = ""
	w.WriteHeader(http.StatusCreated)
}

func (s *TestServer) updateFeatureType(w http.ResponseWriter, r *http.Request) {
	ws, store, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]
	ft, ok := store[name]
	if !ok {
		http.Error(w, "No such feature type", http.StatusNotFound)
		return
	}
	var update FeatureType
	if err := xml.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if update.Title != "" {
		ft.Title = update.Title
	}
	if update.Abstract != "" {
		ft.Abstract = update.Abstract
	}
	if update.Advertised != nil {
		ft.Advertised = update.Advertised
	}
	if update.Name != "" && update.Name != name {
		ft.Name = update.Name
		delete(store, name)
		store[ft.Name] = ft
		ws.layers[ft.Name] = ws.layers[name]
		delete(ws.layers, name)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *TestServer) lookupLayer(w http.ResponseWriter, r *http.Request) (*testWorkspace, string, bool) {
	workspace, name, _ := strings.Cut(mux.Vars(r)["layer"], ":")
	ws, ok := s.workspaces[workspace]
	if ok {
		_, ok = ws.layers[name]
	}
	if !ok {
		http.Error(w, fmt.Sprintf("No such layer: %s", mux.Vars(r)["layer"]), http.StatusNotFound)
	}
	return ws, name, ok
}

func (s *TestServer) getLayer(w http.ResponseWriter, r *http.Request) {
	ws, name, ok := s.lookupLayer(w, r)
	if !ok {
		return
	}
	lyr := layer{Name: name}
	if style := ws.layers[name]; style != "" {
		lyr.DefaultStyle = &styleRef{Name: style}
		if styleWorkspace, styleName := SplitStyleName(style); s.legacyStyleRefs && styleWorkspace != "" {
			lyr.DefaultStyle = &styleRef{Name: styleName, Workspace: styleWorkspace}
		}
	}
	writeJSON(w, http.StatusOK, layerEnvelope{Layer: lyr})
}

func (s *TestServer) updateLayer(w http.ResponseWriter, r *http.Request) {
	ws, name, ok := s.lookupLayer(w, r)
	if !ok {
		return
	}
	var envelope layerEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ref := envelope.Layer.DefaultStyle; ref != nil {
		styleWorkspace, styleName := SplitStyleName(ref.Name)
		if styleWorkspace != "" {
			sws, ok := s.workspaces[styleWorkspace]
			if ok {
				_, ok = sws.styles[styleName]
			}
			if !ok {
				http.Error(w, fmt.Sprintf("No such style: %s", ref.Name), http.StatusNotFound)
				return
			}
		}
		ws.layers[name] = ref.Name
	}
	w.WriteHeader(http.StatusOK)
}

// writeCollection writes a collection the way GeoServer does, including its
// peculiar rendering of an empty collection as an empty string.
func writeCollection(w http.ResponseWriter, plural, singular string, names []string) {
	if len(names) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{plural: ""})
		return
	}
	items := make([]namedResource, len(names))
	for i, name := range names {
		items[i] = namedResource{Name: name, Href: "http://localhost/" + name + ".json"}
	}
	writeJSON(w, http.StatusOK, map[string]map[string][]namedResource{plural: {singular: items}})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func sldFromZip(body []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("reading zip: %w", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".sld") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("no SLD file found in zip")
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
