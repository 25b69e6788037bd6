package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr    string
	MaxJobs int64
	BaseURL string
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("LINTGATE_ADDR"),
		},
		&cli.Int64Flag{
			Name:        "max-jobs",
			Usage:       "Maximum number of jobs running at the same time",
			Value:       4,
			Destination: &c.MaxJobs,
			Sources:     cli.EnvVars("LINTGATE_MAX_JOBS"),
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Public URL of this server, used as the commit status target",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("LINTGATE_BASE_URL"),
		},
	}
}
