package es

import (
	"ieflow/common"
	"net/http"
	"os"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/estransport"
	"github.com/sirupsen/logrus"
)

// ActiveClient is nil when work order search is disabled.
var ActiveClient *elasticsearch.Client

// ConnectFromEnv builds the client from ELASTICSEARCH_URL (comma separated) and the optional
// ELASTICSEARCH_USERNAME and ELASTICSEARCH_PASSWORD. No address means no client and no error.
func ConnectFromEnv() (*elasticsearch.Client, error) {
	addresses := common.SplitAndTrim(os.Getenv("ELASTICSEARCH_URL"))
	if len(addresses) == 0 {
		logrus.Warnln("ELASTICSEARCH_URL is not set, work order search is disabled")
		return nil, nil
	}

	traceBodies := logrus.IsLevelEnabled(logrus.TraceLevel)
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:  os.Getenv("ELASTICSEARCH_PASSWORD"),
		Transport: &TracingTransport{Transport: http.DefaultTransport},
		Logger: &estransport.TextLogger{
			Output:             logrus.StandardLogger().WriterLevel(logrus.DebugLevel),
			EnableRequestBody:  traceBodies,
			EnableResponseBody: traceBodies,
		},
	})
	if err != nil {
		return nil, err
	}
	logrus.Infof("work order search connected to %v", addresses)

	ActiveClient = client
	return client, nil
}
