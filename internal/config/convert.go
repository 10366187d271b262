package config

import (
	"github.com/danmuck/dspctl/internal/participant"
)

// ParticipantFile is the on-disk definition configgen expands into a
// bootstrap record.
type ParticipantFile struct {
	Name             string                    `toml:"name"`
	Identity         string                    `toml:"identity"`
	ManagementURL    string                    `toml:"management_url"`
	ProtocolURL      string                    `toml:"protocol_url"`
	PublicDataURL    string                    `toml:"public_data_url"`
	CallbackURL      string                    `toml:"callback_url"`
	ControlPort      int                       `toml:"control_port"`
	ControlPlanePort int                       `toml:"control_plane_port"`
	DataPlanePort    int                       `toml:"data_plane_port"`
	DataControlPort  int                       `toml:"data_control_port"`
	Store            participant.StoreSettings `toml:"store"`
}

func LoadParticipant(path string) (ParticipantFile, error) {
	var f ParticipantFile
	if err := loadToml(path, &f); err != nil {
		return ParticipantFile{}, err
	}
	return f, nil
}

func (f ParticipantFile) Endpoint() (participant.Endpoint, error) {
	return participant.NewEndpoint(f.Name, f.Identity, f.ManagementURL, f.ProtocolURL, f.PublicDataURL, f.CallbackURL)
}

func (f ParticipantFile) Bootstrap() (participant.Bootstrap, error) {
	ep, err := f.Endpoint()
	if err != nil {
		return participant.Bootstrap{}, err
	}
	return participant.NewBootstrap(ep, participant.BootstrapOptions{
		ControlPort:      f.ControlPort,
		ControlPlanePort: f.ControlPlanePort,
		DataPlanePort:    f.DataPlanePort,
		DataControlPort:  f.DataControlPort,
		Store:            f.Store,
	})
}
