package main

import (
	"fmt"
	"io"
	"os"

	"github.com/synetcore/go-did"
	"github.com/urfave/cli/v2"
)

func main() {
	newApp(os.Stdout).RunAndExitOnError()
}

func newApp(w io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "didcli"
	app.Usage = "create, parse and validate decentralized identifiers"
	app.Writer = w

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Value: "json",
			Usage: "output format: json or yaml",
		},
	}

	app.Commands = []*cli.Command{
		keyCmd,
		webCmd,
		parseCmd,
		validateCmd,
		normalizeCmd,
		expandCmd,
		webURLCmd,
	}

	return app
}

func didArg(cctx *cli.Context) (string, error) {
	if cctx.Args().Len() != 1 {
		return "", fmt.Errorf("must specify a single DID")
	}
	return cctx.Args().First(), nil
}

var keyCmd = &cli.Command{
	Name:      "key",
	Usage:     "encode a hex public key as a did:key",
	ArgsUsage: "<hex>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "type",
			Value: string(did.KeyTypeEd25519),
			Usage: "ed25519-pub, secp256k1-pub or x25519-pub",
		},
	},
	Action: func(cctx *cli.Context) error {
		if !cctx.Args().Present() {
			return fmt.Errorf("must specify a hex encoded public key")
		}

		d, err := did.CreateDIDKey(cctx.Args().First(), cctx.String("type"))
		if err != nil {
			return err
		}

		return printResult(cctx, map[string]string{"did": d})
	},
}

var webCmd = &cli.Command{
	Name:      "web",
	Usage:     "build a did:web from a domain and optional path",
	ArgsUsage: "<domain> [path]",
	Action: func(cctx *cli.Context) error {
		if !cctx.Args().Present() {
			return fmt.Errorf("must specify a domain")
		}

		d, err := did.CreateDIDWeb(cctx.Args().First(), cctx.Args().Tail()...)
		if err != nil {
			return err
		}

		return printResult(cctx, map[string]string{"did": d})
	},
}

var parseCmd = &cli.Command{
	Name:      "parse",
	ArgsUsage: "<did>",
	Action: func(cctx *cli.Context) error {
		d, err := didArg(cctx)
		if err != nil {
			return err
		}

		return printResult(cctx, did.ParseDID(d))
	},
}

var validateCmd = &cli.Command{
	Name:      "validate",
	Usage:     "validate a DID, exiting non-zero when it is invalid",
	ArgsUsage: "<did>",
	Action: func(cctx *cli.Context) error {
		d, err := didArg(cctx)
		if err != nil {
			return err
		}

		res := did.ValidateDID(d)
		if err := printResult(cctx, res); err != nil {
			return err
		}
		if !res.IsValid {
			return cli.Exit("", 1)
		}
		return nil
	},
}

var normalizeCmd = &cli.Command{
	Name:      "normalize",
	ArgsUsage: "<did>",
	Action: func(cctx *cli.Context) error {
		d, err := didArg(cctx)
		if err != nil {
			return err
		}

		n, err := did.NormalizeDID(d)
		if err != nil {
			return err
		}

		return printResult(cctx, map[string]string{"did": n})
	},
}

var expandCmd = &cli.Command{
	Name:      "expand",
	Usage:     "print the DID document implied by a did:key",
	ArgsUsage: "<did:key>",
	Action: func(cctx *cli.Context) error {
		d, err := didArg(cctx)
		if err != nil {
			return err
		}

		doc, err := did.ExpandDIDKey(d)
		if err != nil {
			return err
		}

		return printResult(cctx, doc)
	},
}

var webURLCmd = &cli.Command{
	Name:      "web-url",
	Usage:     "print the URL a did:web document is fetched from",
	ArgsUsage: "<did:web>",
	Action: func(cctx *cli.Context) error {
		d, err := didArg(cctx)
		if err != nil {
			return err
		}

		u, err := did.WebDocumentURL(d)
		if err != nil {
			return err
		}

		return printResult(cctx, map[string]string{"url": u})
	},
}
