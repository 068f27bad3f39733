package ringhash

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidRingConfig = errors.New("invalid ring config")
	ErrInvalidHost       = errors.New("invalid host")
	ErrNoHosts           = errors.New("no available host")
)
