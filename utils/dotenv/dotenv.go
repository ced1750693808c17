package dotenv

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	ProdEnv = "prod"
	DevEnv  = "dev"
	TestEnv = "test"
)

// LoadDotEnvs loads the .env files following the convention:
// https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only needs to be called once in the main function, other code can read
// env through os.Getenv('ENV_NAME') during runtime.
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

func loadDotEnvs(rootPath string) {
	env := os.Getenv("GOODREADS_ENV")
	if env == "" {
		env = DevEnv
	}

	// .env.[runtime_env].local has highest priority, usually contains username
	// and password and other sensitive information
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[runtime_env] usually contains db connection information
	godotenv.Load(rootPath + ".env." + env)
	// .env usually contains shared variables(which might be overwritten by envs above)
	godotenv.Load(rootPath + ".env")
}
