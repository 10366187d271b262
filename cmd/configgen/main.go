package main

import (
	"flag"
	"path/filepath"
	"strings"

	"github.com/danmuck/dspctl/internal/config"
	"github.com/danmuck/dspctl/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	kind := flag.String("kind", "scenario", "template kind: scenario|participant")
	output := flag.String("output", "", "output path for the template")
	bootstrap := flag.String("bootstrap", "", "participant definition to expand into bootstrap files")
	outDir := flag.String("out-dir", ".", "directory for generated bootstrap files")
	validate := flag.String("validate", "", "validate an existing bootstrap file")
	force := flag.Bool("force", false, "overwrite existing files")
	flag.Parse()

	logging.ConfigureRuntime()

	switch {
	case *validate != "":
		if _, err := config.LoadBootstrap(*validate); err != nil {
			log.Fatal().Err(err).Str("path", *validate).Msg("invalid bootstrap")
		}
		log.Info().Str("path", *validate).Msg("validated bootstrap")

	case *bootstrap != "":
		def, err := config.LoadParticipant(*bootstrap)
		if err != nil {
			log.Fatal().Err(err).Msg("load participant")
		}
		b, err := def.Bootstrap()
		if err != nil {
			log.Fatal().Err(err).Msg("build bootstrap")
		}
		base := filepath.Join(*outDir, b.Name)
		if err := config.WriteBootstrap(base+"-bootstrap.toml", b, *force); err != nil {
			log.Fatal().Err(err).Msg("write bootstrap")
		}
		if err := config.WriteProperties(base+"-controlplane.properties", b.ControlPlane.Properties(), *force); err != nil {
			log.Fatal().Err(err).Msg("write control plane properties")
		}
		if err := config.WriteProperties(base+"-dataplane.properties", b.DataPlane.Properties(), *force); err != nil {
			log.Fatal().Err(err).Msg("write data plane properties")
		}
		log.Info().Str("participant", b.Name).Str("dir", *outDir).Msg("wrote bootstrap files")

	default:
		target := *output
		if target == "" {
			target = strings.ToLower(strings.TrimSpace(*kind)) + ".toml"
		}
		if err := config.WriteTemplate(target, *kind, *force); err != nil {
			log.Fatal().Err(err).Msg("write template")
		}
		log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
	}
}
