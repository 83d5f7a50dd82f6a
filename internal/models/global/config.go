package global

import "time"

type Relay struct {
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	Version         string        `yaml:"version"`
}
