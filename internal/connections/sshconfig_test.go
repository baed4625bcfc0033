package connections

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSSHConfig = `
# workstation
Host gpu-box gpu
    HostName 10.0.0.5
    User me
    Port 2222
    IdentityFile "~/.ssh/id_gpu"

Host *
    ServerAliveInterval 30

Host nas
    User=admin

Match host foo
    User ignored
`

func TestParseSSHConfig(t *testing.T) {
	hosts := ParseSSHConfig(strings.NewReader(sampleSSHConfig))
	if len(hosts) != 2 {
		t.Fatalf("Expected 2 hosts, got %d: %+v", len(hosts), hosts)
	}

	gpu := hosts[0]
	if gpu.Name != "gpu-box" || gpu.Host != "10.0.0.5" || gpu.Username != "me" || gpu.Port != 2222 || gpu.KeyFile != "~/.ssh/id_gpu" {
		t.Errorf("Unexpected gpu entry %+v", gpu)
	}
	nas := hosts[1]
	if nas.Host != "nas" || nas.Username != "admin" || nas.Port != DefaultPort {
		t.Errorf("Unexpected nas entry %+v", nas)
	}
}

func TestLoadSSHConfig(t *testing.T) {
	if hosts := LoadSSHConfig(filepath.Join(t.TempDir(), "missing")); hosts != nil {
		t.Errorf("Expected no hosts for missing file, got %v", hosts)
	}

	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("Host box\n  User root\n"), 0600); err != nil {
		t.Fatal(err)
	}
	hosts := LoadSSHConfig(path)
	if len(hosts) != 1 || hosts[0].Label() != "box" {
		t.Errorf("Expected box, got %+v", hosts)
	}
}
