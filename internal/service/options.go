package service

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Options 各服务共享的运行参数
type Options struct {
	BcryptCost int
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
