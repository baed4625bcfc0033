package connections

import (
	"strings"
	"testing"

	"comfyui-data-manager/internal/secret"
	"comfyui-data-manager/internal/store"
)

func openStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	s, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	return s
}

func TestSaveKeepsPasswordOutOfPrefs(t *testing.T) {
	dir := t.TempDir()
	prefs := openStore(t, dir)
	secrets := secret.NewMemoryStore()

	st, err := Load(prefs, secrets)
	if err != nil {
		t.Fatal(err)
	}
	c, err := st.Save(Connection{Host: "gpu-box", Username: "me"}, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == "" || c.Port != DefaultPort || !c.HasPassword {
		t.Errorf("Unexpected saved connection %+v", c)
	}
	if pass, ok := st.Password(c.ID); !ok || pass != "hunter2" {
		t.Errorf("Expected password from secret store, got '%s' %v", pass, ok)
	}

	var raw []map[string]any
	if _, err := prefs.Get(store.KeyRemoteConnections, &raw); err != nil {
		t.Fatal(err)
	}
	for _, entry := range raw {
		for k, v := range entry {
			if s, ok := v.(string); ok && strings.Contains(s, "hunter2") {
				t.Errorf("Password persisted under %s", k)
			}
		}
	}

	// saving the same target again updates in place
	c2, err := st.Save(Connection{Host: "gpu-box", Username: "me", Name: "GPU"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if c2.ID != c.ID || !c2.HasPassword || len(st.Saved()) != 1 {
		t.Errorf("Expected in-place update, got %+v (%d saved)", c2, len(st.Saved()))
	}
	if c2.Label() != "GPU" {
		t.Errorf("Expected label GPU, got %s", c2.Label())
	}
	prefs.Close()

	prefs = openStore(t, dir)
	defer prefs.Close()
	st, err = Load(prefs, secrets)
	if err != nil {
		t.Fatal(err)
	}
	if got := st.Saved(); len(got) != 1 || got[0].Name != "GPU" {
		t.Errorf("Expected saved connection to persist, got %+v", got)
	}

	if err := st.Remove(c.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Password(c.ID); ok || len(st.Saved()) != 0 {
		t.Error("Expected connection and password removed")
	}
}

func TestActiveConnection(t *testing.T) {
	dir := t.TempDir()
	prefs := openStore(t, dir)
	st, _ := Load(prefs, secret.NewMemoryStore())

	if st.Active() != nil || st.ActiveID() != "" {
		t.Error("Expected no active connection")
	}
	if err := st.SetActive(Connection{Host: "h", Username: "u", Port: 2222, ConnectionID: "abc"}); err != nil {
		t.Fatal(err)
	}
	if st.ActiveID() != "abc" || st.Active().Label() != "u@h:2222" {
		t.Errorf("Unexpected active %+v", st.Active())
	}
	prefs.Close()

	prefs = openStore(t, dir)
	defer prefs.Close()
	st, _ = Load(prefs, secret.NewMemoryStore())
	if st.ActiveID() != "abc" {
		t.Errorf("Expected active connection to persist, got '%s'", st.ActiveID())
	}
	if err := st.ClearActive(); err != nil {
		t.Fatal(err)
	}
	if st.Active() != nil {
		t.Error("Expected active cleared")
	}
}
