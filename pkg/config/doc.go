// Package config loads loader configuration from a YAML file and environment
// variables.
//
// # Environment
//
//	PLUGLOAD_BASES="myapp.plugins,contrib.plugins"  # comma separated
//	PLUGLOAD_STRICT="true"
//	PLUGLOAD_EXCLUDE="legacy,experimental"
//	PLUGLOAD_FAIL_ON_BROKEN_UNITS="false"
//	PLUGLOAD_ROOTS="/etc/plugload/plugins:./plugins"  # OS path list
//	PLUGLOAD_CACHE_SIZE="256"
//	PLUGLOAD_CACHE_TTL="10m"
//	PLUGLOAD_LOG_LEVEL="info"
//
// Object store settings:
//
//	PLUGLOAD_S3_BUCKET="plugins"
//	PLUGLOAD_S3_PREFIX="prod"
//	PLUGLOAD_S3_REGION="us-east-1"
//	PLUGLOAD_S3_ENDPOINT="http://localhost:9000"
//	PLUGLOAD_S3_ACCESS_KEY="..."
//	PLUGLOAD_S3_SECRET_KEY="..."
//	PLUGLOAD_S3_USE_PATH_STYLE="true"
//
// # File
//
// The same settings in YAML. Environment variables override the file.
//
//	bases: [myapp.plugins]
//	strict: true
//	exclude: [legacy]
//	roots: [/etc/plugload/plugins]
//	cache_ttl: 10m
//	object_store:
//	  bucket: plugins
//	  prefix: prod
//
// # Usage
//
//	cfg, err := config.Load("plugload.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	l, err := loader.New[Reducer](append(cfg.Options(), loader.WithResolver(r))...)
package config
