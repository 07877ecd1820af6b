package user

import (
	"github.com/shulehub/shule/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service suitable for tests: same behavior as the
// real service, emails go to the provided (typically console/dummy) service.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			conf:    conf,
		},
	}
}
