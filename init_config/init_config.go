// Package init_config loads the constant configuration from config.toml,
// falling back to built-in defaults when the file is absent or incomplete.
package init_config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type ConstantConfig struct {
	LibraryRoot  string
	DatabasePath string
	LogPath      string
	ExiftoolBin  string
	TCPPort      int
}

func (c *ConstantConfig) InitDefaults() {
	c.LibraryRoot = "./library"
	c.DatabasePath = "./film_vault.db"
	c.LogPath = "./log.txt"
	c.ExiftoolBin = "exiftool"
	c.TCPPort = 8391
}

func (c *ConstantConfig) fillMissing() {
	defaults := ConstantConfig{}
	defaults.InitDefaults()
	if c.LibraryRoot == "" {
		c.LibraryRoot = defaults.LibraryRoot
	}
	if c.DatabasePath == "" {
		c.DatabasePath = defaults.DatabasePath
	}
	if c.LogPath == "" {
		c.LogPath = defaults.LogPath
	}
	if c.ExiftoolBin == "" {
		c.ExiftoolBin = defaults.ExiftoolBin
	}
	if c.TCPPort == 0 {
		c.TCPPort = defaults.TCPPort
	}
}

func InitConstantConfigFromToml(path string) ConstantConfig {
	var c ConstantConfig
	fp, err := os.Open(path)
	if err != nil {
		fmt.Println("Open toml failed: ", err)
		c.InitDefaults()
		return c
	}
	defer fp.Close()

	if _, err = toml.NewDecoder(fp).Decode(&c); err != nil {
		fmt.Println("Init from toml failed: ", err)
		c.InitDefaults()
		return c
	}
	c.fillMissing()
	return c
}
