package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// fileConfig mirrors the HCL config file layout:
//
//	verbose       = 2
//	build_timeout = "30s"
//
//	network {
//	  listen    = "0.0.0.0:30303"
//	  bootnodes = ["10.0.0.2:30303"]
//	}
//
//	ssh {
//	  tunnel = "admin@bastion:2222"
//	  key    = "${env.HOME}/.ssh/id_ed25519"
//	}
//
//	pool    { max_size = 8192 }
//	payload { interval = "1s" }
//
// Every attribute is optional; absent ones leave cfg untouched.
type fileConfig struct {
	Verbose      *int          `hcl:"verbose,optional"`
	BuildTimeout *string       `hcl:"build_timeout,optional"`
	Network      *networkBlock `hcl:"network,block"`
	SSH          *sshBlock     `hcl:"ssh,block"`
	Pool         *poolBlock    `hcl:"pool,block"`
	Payload      *payloadBlock `hcl:"payload,block"`
}

type networkBlock struct {
	Listen       *string  `hcl:"listen,optional"`
	Bootnodes    []string `hcl:"bootnodes,optional"`
	MaxPeers     *int     `hcl:"max_peers,optional"`
	DialTimeout  *string  `hcl:"dial_timeout,optional"`
	DialAttempts *int     `hcl:"dial_attempts,optional"`
}

type sshBlock struct {
	Tunnel        *string `hcl:"tunnel,optional"`
	Key           *string `hcl:"key,optional"`
	Password      *bool   `hcl:"password,optional"`
	Agent         *bool   `hcl:"agent,optional"`
	StrictHostKey *bool   `hcl:"strict_host_key,optional"`
	KnownHosts    *string `hcl:"known_hosts,optional"`
}

type poolBlock struct {
	MaxSize *int `hcl:"max_size,optional"`
}

type payloadBlock struct {
	Interval        *string `hcl:"interval,optional"`
	MaxTransactions *int    `hcl:"max_transactions,optional"`
	AllowEmpty      *bool   `hcl:"allow_empty,optional"`
}

// LoadFile overlays the HCL (or HCL-flavoured JSON, by .json
// extension) config file at path onto cfg.  Expressions may reference
// environment variables as env.NAME.
func LoadFile(path string, cfg *Config) error {
	parser := hclparse.NewParser()

	var (
		f     *hcl.File
		diags hcl.Diagnostics
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		f, diags = parser.ParseJSONFile(path)
	} else {
		f, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return fmt.Errorf("config file: %w", diags)
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(f.Body, evalContext(), &fc); diags.HasErrors() {
		return fmt.Errorf("config file: %w", diags)
	}
	return fc.apply(cfg)
}

// evalContext exposes the process environment as the env object.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func (fc *fileConfig) apply(cfg *Config) error {
	setInt(&cfg.Verbose, fc.Verbose)
	if err := setDuration(&cfg.BuildTimeout, fc.BuildTimeout, "build_timeout"); err != nil {
		return err
	}

	if n := fc.Network; n != nil {
		setString(&cfg.ListenAddr, n.Listen)
		if n.Bootnodes != nil {
			cfg.Bootnodes = n.Bootnodes
		}
		setInt(&cfg.MaxPeers, n.MaxPeers)
		setInt(&cfg.DialAttempts, n.DialAttempts)
		if err := setDuration(&cfg.DialTimeout, n.DialTimeout, "network.dial_timeout"); err != nil {
			return err
		}
	}

	if s := fc.SSH; s != nil {
		setString(&cfg.TunnelSpec, s.Tunnel)
		setString(&cfg.SSHKeyPath, s.Key)
		setBool(&cfg.SSHPassword, s.Password)
		setBool(&cfg.UseSSHAgent, s.Agent)
		setBool(&cfg.StrictHostKey, s.StrictHostKey)
		setString(&cfg.KnownHostsPath, s.KnownHosts)
	}

	if p := fc.Pool; p != nil {
		setInt(&cfg.PoolMaxSize, p.MaxSize)
	}

	if p := fc.Payload; p != nil {
		setInt(&cfg.PayloadMaxTxs, p.MaxTransactions)
		setBool(&cfg.PayloadAllowEmpty, p.AllowEmpty)
		if err := setDuration(&cfg.PayloadInterval, p.Interval, "payload.interval"); err != nil {
			return err
		}
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, field string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("config file: %s: %w", field, err)
	}
	*dst = d
	return nil
}
