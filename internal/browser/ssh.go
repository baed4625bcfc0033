package browser

import (
	"context"
	"strconv"

	"golang.org/x/net/html"

	"comfyui-data-manager/internal/connections"
	"comfyui-data-manager/internal/dom"
	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
	"comfyui-data-manager/internal/store"
)

func (c *Controller) toggleConnection() {
	if c.conns.Active() != nil {
		c.Disconnect()
		return
	}
	c.ShowSSHDialog()
}

// ShowSSHDialog opens the connection form with the saved connections.
func (c *Controller) ShowSSHDialog() {
	if c.ui == nil {
		return
	}
	d := c.openDialog("ssh_title")
	host := c.textField(d, "host", "ssh_host", "text", "")
	port := c.textField(d, "port", "ssh_port", "number", strconv.Itoa(connections.DefaultPort))
	user := c.textField(d, "username", "ssh_user", "text", "")
	pass := c.textField(d, "password", "ssh_password", "password", "")
	keyFile := c.textField(d, "key_file", "ssh_key_file", "text", "")
	name := c.textField(d, "name", "ssh_name", "text", "")
	save := c.checkbox(d, "save", "ssh_save", false)
	savedID := ""
	fill := func(conn connections.Connection, id string) {
		savedID = id
		host.set(conn.Host)
		port.set(strconv.Itoa(conn.Port))
		user.set(conn.Username)
		keyFile.set(conn.KeyFile)
		name.set(conn.Name)
		pass.set("")
		if id != "" {
			if p, ok := c.conns.Password(id); ok {
				pass.set(p)
			}
		}
		save.set(strconv.FormatBool(id != ""))
	}

	if saved := c.conns.Saved(); len(saved) > 0 {
		list := c.hostList("ssh_saved")
		for _, conn := range saved {
			pick := c.doc.El("button", dom.Class("dm-btn", "dm-ssh-saved-item"), dom.Text(conn.Label()))
			c.doc.On(pick, "click", func(dom.Event) { fill(conn, conn.ID) })
			forget := c.doc.El("button", dom.Class("dm-btn", "dm-btn-small"), dom.Attr("title", c.tr.T("ssh_forget")), dom.Text("✕"))
			c.doc.On(forget, "click", func(dom.Event) {
				if err := c.conns.Remove(conn.ID); err != nil {
					c.log.Warn("failed to forget connection", logging.Err(err))
				}
				c.ShowSSHDialog()
			})
			c.doc.Append(list, c.doc.El("div", dom.Class("dm-ssh-saved-row"), dom.Children(pick, forget)))
		}
		c.doc.Append(d.body, list)
	}
	if len(c.sshHosts) > 0 {
		list := c.hostList("ssh_config_hosts")
		for _, conn := range c.sshHosts {
			pick := c.doc.El("button", dom.Class("dm-btn", "dm-ssh-saved-item"), dom.Text(conn.Label()))
			c.doc.On(pick, "click", func(dom.Event) { fill(conn, "") })
			c.doc.Append(list, c.doc.El("div", dom.Class("dm-ssh-saved-row"), dom.Children(pick)))
		}
		c.doc.Append(d.body, list)
	}

	c.actions(d, "connect", func() {
		target := connections.Connection{
			ID:       savedID,
			Name:     name.text(),
			Host:     host.text(),
			Username: user.text(),
			KeyFile:  keyFile.text(),
		}
		if target.Host == "" {
			c.doc.Alert(c.tr.T("ssh_host_required"))
			return
		}
		if target.Username == "" {
			c.doc.Alert(c.tr.T("ssh_user_required"))
			return
		}
		p, err := strconv.Atoi(port.text())
		if port.text() == "" {
			p, err = connections.DefaultPort, nil
		}
		if err != nil || p <= 0 || p > 65535 {
			c.doc.Alert(c.tr.T("ssh_port_invalid"))
			return
		}
		target.Port = p
		c.closeDialog()
		c.Connect(target, pass.value, save.checked())
	})
	c.doc.Focus(host.node)
}

func (c *Controller) hostList(titleID string) *html.Node {
	return c.doc.El("div", dom.Class("dm-ssh-saved"),
		dom.Children(c.doc.El("div", dom.Class("dm-ssh-saved-title"), dom.Text(c.tr.T(titleID)))))
}

// Connect opens an SSH session, makes it the active connection and lists
// its home directory. When save is set the connection is remembered and
// its password goes to the secret store.
func (c *Controller) Connect(target connections.Connection, password string, save bool) <-chan struct{} {
	if target.Port == 0 {
		target.Port = connections.DefaultPort
	}
	c.setStatus(c.tr.T("ssh_connecting", i18n.D{"Host": target.Host}))
	req := models.SSHConnectRequest{
		Host:     target.Host,
		Port:     target.Port,
		Username: target.Username,
		Password: password,
		KeyFile:  target.KeyFile,
	}
	var conn *models.SSHConnection
	return c.async(func(ctx context.Context) error {
		var err error
		conn, err = c.api.SSHConnect(ctx, req)
		return err
	}, func(err error) <-chan struct{} {
		if err != nil {
			c.log.Warn("ssh connect failed", logging.String("host", target.Host), logging.Err(err))
			msg := c.tr.T("ssh_failed", i18n.D{"Error": apperrors.UserMessage(err)})
			c.setStatus(msg)
			c.toast(msg, "error")
			return nil
		}
		if save {
			saved, err := c.conns.Save(target, password)
			if err != nil {
				c.log.Warn("failed to save connection", logging.Err(err))
			} else {
				target = saved
			}
		}
		target.ConnectionID = conn.ConnectionID
		target.HomeDir = conn.HomeDir
		if err := c.conns.SetActive(target); err != nil {
			c.log.Warn("failed to persist active connection", logging.Err(err))
		}
		c.log.Info("ssh connected", logging.String("host", target.Host), logging.String("connection_id", conn.ConnectionID))
		c.updateConnectionStatus()
		c.toast(c.tr.T("ssh_connected", i18n.D{"Host": target.Host}), "success")
		c.switchRoots()
		return c.LoadDirectory(c.homePath())
	})
}

// Disconnect closes the active session and returns to local browsing at
// the last local path.
func (c *Controller) Disconnect() <-chan struct{} {
	active := c.conns.Active()
	if active == nil {
		return closed()
	}
	return c.async(func(ctx context.Context) error {
		return c.api.SSHDisconnect(ctx, active.ConnectionID)
	}, func(err error) <-chan struct{} {
		if err != nil {
			// the session is gone either way
			c.log.Warn("ssh disconnect failed", logging.String("host", active.Host), logging.Err(err))
		}
		if err := c.conns.ClearActive(); err != nil {
			c.log.Warn("failed to clear active connection", logging.Err(err))
		}
		c.log.Info("ssh disconnected", logging.String("host", active.Host))
		c.updateConnectionStatus()
		c.toast(c.tr.T("ssh_disconnected"), "info")
		c.switchRoots()
		return c.LoadDirectory(c.prefs.GetString(store.KeyLastPath, "."))
	})
}

// switchRoots forgets what belonged to the previous filesystem.
func (c *Controller) switchRoots() {
	c.state.ResetHistory()
	c.state.ClearSelection()
	c.state.CurrentPath = ""
	c.clearPreview()
	c.filter = ""
	if c.ui != nil {
		dom.SetAttr(c.ui.filterInput, "value", "")
	}
}
