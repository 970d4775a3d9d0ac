package config

import "github.com/atlanticdynamic/appforge/internal/config/errz"

var (
	ErrFailedToLoadConfig     = errz.ErrFailedToLoadConfig
	ErrFailedToValidateConfig = errz.ErrFailedToValidateConfig
	ErrUnsupportedConfigVer   = errz.ErrUnsupportedConfigVer
)
