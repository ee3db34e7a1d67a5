package boot

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sprucehealth/mediaindexer/libs/golog"
)

// ParseFlags loads a .env file when present then parses the command line. Flags that aren't
// given on the command line are taken from environment variables named by the prefix followed
// by the upper cased flag name (e.g. -aws_region with prefix MEDIAINDEXER_ is
// MEDIAINDEXER_AWS_REGION).
func ParseFlags(prefix string) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		golog.Warningf("Failed to load .env: %s", err)
	}
	if err := parseFlagSet(flag.CommandLine, os.Args[1:], prefix, os.LookupEnv); err != nil {
		golog.Fatalf("Invalid flags: %s", err)
	}
}

func parseFlagSet(fs *flag.FlagSet, args []string, prefix string, lookupEnv func(string) (string, bool)) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || set[f.Name] {
			return
		}
		name := prefix + strings.ToUpper(strings.Replace(f.Name, "-", "_", -1))
		if v, ok := lookupEnv(name); ok {
			if e := fs.Set(f.Name, v); e != nil {
				err = e
			}
		}
	})
	return err
}
