package backend

import (
	"github.com/hashicorp/go-multierror"
)

// Fanout registers every gauge with all of its backends.
type Fanout []Backend

type fanoutRegistration []Registration

// Register registers desc with each backend in order. When one of them fails,
// the registrations already made are rolled back.
func (f Fanout) Register(desc Descriptor, value ValueFunc) (Registration, error) {
	registrations := make(fanoutRegistration, 0, len(f))
	for _, b := range f {
		r, err := b.Register(desc, value)
		if err != nil {
			if rollbackErr := registrations.Unregister(); rollbackErr != nil {
				return nil, multierror.Append(err, rollbackErr)
			}
			return nil, err
		}
		registrations = append(registrations, r)
	}
	return registrations, nil
}

func (r fanoutRegistration) Unregister() error {
	var result *multierror.Error
	for _, reg := range r {
		if err := reg.Unregister(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
