package solana

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

type Environment string

const (
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
)

// ResolveEnvironment maps a cluster moniker, or an explicit http(s) URL, onto
// an RPC endpoint.
func ResolveEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet-beta", "mainnet", "m":
		return EnvironmentProd, nil
	case "devnet", "d":
		return EnvironmentDev, nil
	case "testnet", "t":
		return EnvironmentTest, nil
	case "localnet", "localhost", "l":
		return EnvironmentLocal, nil
	}

	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.Errorf("unknown cluster or rpc url %q", s)
	}
	return Environment(s), nil
}
