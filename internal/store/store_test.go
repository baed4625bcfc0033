package store

import "testing"

func TestPutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.Put(KeyLastPath, "/data/output"); err != nil {
		t.Fatal(err)
	}
	if got := s.GetString(KeyLastPath, "."); got != "/data/output" {
		t.Errorf("Expected '/data/output', got '%s'", got)
	}
	if got := s.GetString(KeyViewMode, "list"); got != "list" {
		t.Errorf("Expected default 'list', got '%s'", got)
	}

	type conn struct {
		ID   string `json:"id"`
		Host string `json:"host"`
	}
	if err := s.Put(KeyRemoteConnections, []conn{{ID: "a", Host: "box"}}); err != nil {
		t.Fatal(err)
	}
	var conns []conn
	ok, err := s.Get(KeyRemoteConnections, &conns)
	if !ok || err != nil || len(conns) != 1 || conns[0].Host != "box" {
		t.Errorf("Unexpected connections: %v %v %+v", ok, err, conns)
	}

	if err := s.Delete(KeyLastPath); err != nil {
		t.Fatal(err)
	}
	if got := s.GetString(KeyLastPath, "."); got != "." {
		t.Errorf("Expected default after delete, got '%s'", got)
	}
	s.Close()

	// values survive reopening
	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()
	conns = nil
	if ok, _ := s2.Get(KeyRemoteConnections, &conns); !ok || len(conns) != 1 {
		t.Error("Expected connections to persist")
	}
	if !s2.GetBool(KeyUseTrash, true) {
		t.Error("Expected default true for missing bool")
	}
}
