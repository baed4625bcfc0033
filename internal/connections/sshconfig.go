package connections

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseSSHConfig reads Host blocks from an OpenSSH client config. Wildcard
// patterns are skipped since they name no concrete host.
func ParseSSHConfig(r io.Reader) []Connection {
	var hosts []Connection
	var cur *Connection
	flush := func() {
		if cur != nil && cur.Name != "" && !strings.ContainsAny(cur.Name, "*?!") {
			if cur.Host == "" {
				cur.Host = cur.Name
			}
			hosts = append(hosts, *cur)
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitDirective(line)
		if !ok {
			continue
		}

		switch key {
		case "host":
			flush()
			// "Host a b" declares aliases; the first one names the entry.
			cur = &Connection{Name: strings.Fields(value)[0], Port: DefaultPort}
		case "match":
			flush()
			cur = nil
		case "hostname":
			if cur != nil {
				cur.Host = value
			}
		case "user":
			if cur != nil {
				cur.Username = value
			}
		case "port":
			if cur != nil {
				if port, err := strconv.Atoi(value); err == nil {
					cur.Port = port
				}
			}
		case "identityfile":
			if cur != nil && cur.KeyFile == "" {
				cur.KeyFile = strings.Trim(value, "\"")
			}
		}
	}
	flush()
	return hosts
}

// splitDirective handles both "Key value" and "Key=value".
func splitDirective(line string) (string, string, bool) {
	i := strings.IndexAny(line, " \t=")
	if i < 0 {
		return "", "", false
	}
	key := strings.ToLower(line[:i])
	value := strings.TrimSpace(strings.TrimLeft(line[i:], " \t="))
	if value == "" {
		return "", "", false
	}
	return key, value, true
}

// LoadSSHConfig parses the config file at path. A missing or unreadable
// file yields no hosts.
func LoadSSHConfig(path string) []Connection {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	return ParseSSHConfig(f)
}
