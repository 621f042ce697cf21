package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/gcfg.v1"
)

type (
	Config struct {
		MAGENTO struct {
			URL              string
			User             string
			Pass             string
			StoreID          int
			WebsiteID        int
			StoreView        string
			TimeoutMs        int
			RetryAttempts    int
			RetryBaseDelayMs int
			TokenTTLMinutes  int
		}
		RATELIMIT struct {
			RequestsPerSecond     int
			BurstLimit            int
			DelayBetweenBatchesMs int
			MaxConcurrent         int
		}
		BATCH struct {
			SimpleProducts       int
			ConfigurableProducts int
			Attributes           int
			Categories           int
			Media                int
		}
		ERRORS struct {
			ContinueOnError    bool
			MaxErrorsPerBatch  int
			MaxRetries         int
			CreateErrorReports bool
		}
		PRODUCT struct {
			Status         string
			Visibility     string
			TaxClassID     int
			Weight         string
			AttributeSetID int
			TypeID         string
			StockStatus    string
			ManageStock    bool
			Qty            int
			Price          string
			MinPrice       string
		}
		CATEGORY struct {
			IsActive      bool
			IncludeInMenu bool
			Position      int
			RootID        int
		}
		ATTRIBUTE struct {
			Scope                string
			IsRequired           bool
			IsUserDefined        bool
			IsVisible            bool
			IsSearchable         bool
			IsFilterable         bool
			IsComparable         bool
			IsVisibleOnFront     bool
			UsedInProductListing bool
		}
		LOCALE struct {
			Locale             string
			Currency           string
			Timezone           string
			DecimalSeparator   string
			ThousandsSeparator string
		}
		IMAGE struct {
			MaxWidth          int
			MaxHeight         int
			Quality           int
			Format            string
			Background        string
			MaxUploadBytes    int64
			ReencodeOverBytes int64
			AllowedMime       []string
		}
		CATALOG struct {
			Brand        []string
			Color        []string
			PriceDefault []string
			MaxNameLen   int
			MaxShortLen  int
			MaxDescLen   int
			MaxURLKeyLen int
		}
		CSV struct {
			Path       string
			ImagesPath string
		}
		JOB struct {
			Dir  string
			Mode string
		}
		TELEGRAM struct {
			BotToken string
			ChatID   int64
			Debug    int
		}
		SERVICE struct {
			Port int
		}
		LOG struct {
			Debug int
		}
	}
)

var cfg Config
var once sync.Once

// Path is overridable with the -config flag before the first GetConfig call.
var Path = "./config/config.ini"

func GetConfig() *Config {
	once.Do(func() {
		err := os.MkdirAll("logs", 0770)
		if err != nil {
			fmt.Println(err)
		}

		file, err := os.OpenFile("logs/config.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			fmt.Println(err)
		}

		multiWriter := io.MultiWriter(file, os.Stdout)

		logger := log.New(multiWriter, "MAIN ", log.Ldate|log.Ltime|log.Lshortfile)

		logger.Print("Config:>Read application configurations")

		cfg = Default()
		err = gcfg.ReadFileInto(&cfg, Path)
		if err != nil {
			logger.Fatalf("Config:>Failed to parse gcfg data: %s", err)
		} else {
			logger.Print("Config:>Config is read")
		}
	})

	return &cfg
}

// Default carries every fallback value; gcfg overwrites only the keys
// present in the file, so missing keys keep these.
func Default() Config {
	var c Config

	c.MAGENTO.StoreID = 1
	c.MAGENTO.WebsiteID = 1
	c.MAGENTO.TimeoutMs = 30000
	c.MAGENTO.RetryAttempts = 3
	c.MAGENTO.RetryBaseDelayMs = 1000
	c.MAGENTO.TokenTTLMinutes = 180

	c.RATELIMIT.RequestsPerSecond = 10
	c.RATELIMIT.BurstLimit = 5
	c.RATELIMIT.DelayBetweenBatchesMs = 500
	c.RATELIMIT.MaxConcurrent = 4

	c.BATCH.SimpleProducts = 20
	c.BATCH.ConfigurableProducts = 10
	c.BATCH.Attributes = 15
	c.BATCH.Categories = 25
	c.BATCH.Media = 5

	c.ERRORS.ContinueOnError = true
	c.ERRORS.MaxErrorsPerBatch = 10
	c.ERRORS.MaxRetries = 3
	c.ERRORS.CreateErrorReports = true

	c.PRODUCT.Status = "enabled"
	c.PRODUCT.Visibility = "catalog_search"
	c.PRODUCT.TaxClassID = 2
	c.PRODUCT.Weight = "1"
	c.PRODUCT.AttributeSetID = 4
	c.PRODUCT.TypeID = "simple"
	c.PRODUCT.StockStatus = "in_stock"
	c.PRODUCT.ManageStock = true
	c.PRODUCT.Qty = 0
	c.PRODUCT.Price = "9.99"
	c.PRODUCT.MinPrice = "1"

	c.CATEGORY.IsActive = true
	c.CATEGORY.IncludeInMenu = true
	c.CATEGORY.Position = 0
	c.CATEGORY.RootID = 2

	c.ATTRIBUTE.Scope = "global"
	c.ATTRIBUTE.IsUserDefined = true
	c.ATTRIBUTE.IsVisible = true
	c.ATTRIBUTE.IsSearchable = true
	c.ATTRIBUTE.IsFilterable = true
	c.ATTRIBUTE.IsComparable = true
	c.ATTRIBUTE.IsVisibleOnFront = true
	c.ATTRIBUTE.UsedInProductListing = true

	c.LOCALE.Locale = "fr_FR"
	c.LOCALE.Currency = "EUR"
	c.LOCALE.Timezone = "Europe/Paris"
	c.LOCALE.DecimalSeparator = ","
	c.LOCALE.ThousandsSeparator = " "

	c.IMAGE.MaxWidth = 1200
	c.IMAGE.MaxHeight = 1200
	c.IMAGE.Quality = 90
	c.IMAGE.Format = "jpeg"
	c.IMAGE.Background = "#FFFFFF"
	c.IMAGE.MaxUploadBytes = 8 << 20
	c.IMAGE.ReencodeOverBytes = 3 << 20
	c.IMAGE.AllowedMime = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

	c.CATALOG.MaxNameLen = 255
	c.CATALOG.MaxShortLen = 500
	c.CATALOG.MaxDescLen = 2000
	c.CATALOG.MaxURLKeyLen = 50

	c.CSV.ImagesPath = "./images"

	c.JOB.Dir = "./jobs"
	c.JOB.Mode = "skip"

	c.SERVICE.Port = 0

	return c
}
