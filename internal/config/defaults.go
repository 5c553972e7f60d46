package config

const (
	defaultDataDir          = "~/.local/share/stockist"
	defaultLogDir           = "~/.local/share/stockist/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultRequestTimeout   = 30
	defaultProductStatus    = "draft"
	defaultStockStatus      = "instock"
	defaultStockQuantity    = 100
	defaultMaxWorkers       = 3
	defaultItemDelaySeconds = 1
	defaultWorkerStartDelay = 250
	defaultDrainTimeout     = 3000
	defaultMaxImagesPerItem = 5
	defaultMaxPixelDim      = 1200
)

// MaxWorkerLimit bounds the configurable worker pool size.
const MaxWorkerLimit = 10

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Site: Site{
			RequestTimeout: defaultRequestTimeout,
		},
		Products: Products{
			Status:        defaultProductStatus,
			ManageStock:   true,
			StockQuantity: defaultStockQuantity,
			StockStatus:   defaultStockStatus,
		},
		Upload: Upload{
			Concurrent:       true,
			MaxWorkers:       defaultMaxWorkers,
			ItemDelaySeconds: defaultItemDelaySeconds,
			WorkerStartDelay: defaultWorkerStartDelay,
			DrainTimeout:     defaultDrainTimeout,
			MaxImagesPerItem: defaultMaxImagesPerItem,
			MaxPixelDim:      defaultMaxPixelDim,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
