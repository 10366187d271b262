package config

import (
	"fmt"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "scenario":
		return scenarioTemplate, nil
	case "participant":
		return participantTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	return writeFile(path, []byte(template), overwrite)
}

const scenarioTemplate = `asset_id = "asset-1"
deadline_ms = 30000
poll_interval_ms = 100
transfer_state = "STARTED"
destination_type = "HttpProxy"
pull_data = true
provision = true
source_base_url = "http://localhost:9595/data"

[consumer]
name = "consumer"
identity = "urn:connector:consumer"
management_url = "http://localhost:9191/api/management"
protocol_url = "http://localhost:9292"
public_data_url = "http://localhost:9393/public"
callback_url = "http://localhost:9494"

[provider]
name = "provider"
identity = "urn:connector:provider"
management_url = "http://localhost:8181/api/management"
protocol_url = "http://localhost:8282"
public_data_url = "http://localhost:8383/public"
callback_url = "http://localhost:8484"
`

const participantTemplate = `name = "provider"
identity = "urn:connector:provider"
management_url = "http://localhost:8181/api/management"
protocol_url = "http://localhost:8282"
public_data_url = "http://localhost:8383/public"
callback_url = "http://localhost:8484"
control_port = 8185
control_plane_port = 8180
data_plane_port = 8380
data_control_port = 8385

[store]
kind = "memory"
`
