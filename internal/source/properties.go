// Package source holds the SendGrid batch source configuration: the stable
// property keys, the raw property values, and the frozen Config derived from them.
package source

import "github.com/ignite/sendgrid-source/internal/catalog"

// Property keys. They are part of the external contract: UIs and tooling attach
// validation failures to inputs by these names, so renaming one is a breaking change.
const (
	PropertyReferenceName          = "referenceName"
	PropertyAuthType               = "authType"
	PropertySendGridAPIKey         = "sendGridApiKey"
	PropertyAuthUsername           = "username"
	PropertyAuthPassword           = "password"
	PropertyDataSourceTypes        = "dataSourceTypes"
	PropertyDataSource             = "dataSource"
	PropertyDataSourceMarketing    = PropertyDataSource + "Marketing"
	PropertyDataSourceStats        = PropertyDataSource + "Stats"
	PropertyDataSourceSuppressions = PropertyDataSource + "Suppressions"
	PropertyDataSourceFields       = "dataSourceFields"
	PropertyStatCategories         = catalog.ArgStatCategories
	PropertyStartDate              = catalog.ArgStartDate
	PropertyEndDate                = catalog.ArgEndDate
)

// RawConfig is the plain property map handed over by the pipeline framework.
type RawConfig struct {
	ReferenceName          string `yaml:"referenceName" json:"referenceName"`
	AuthType               string `yaml:"authType" json:"authType"`
	SendGridAPIKey         string `yaml:"sendGridApiKey" json:"sendGridApiKey,omitempty"`
	Username               string `yaml:"username" json:"username,omitempty"`
	Password               string `yaml:"password" json:"password,omitempty"`
	DataSourceTypes        string `yaml:"dataSourceTypes" json:"dataSourceTypes"`
	DataSourceMarketing    string `yaml:"dataSourceMarketing" json:"dataSourceMarketing,omitempty"`
	DataSourceStats        string `yaml:"dataSourceStats" json:"dataSourceStats,omitempty"`
	DataSourceSuppressions string `yaml:"dataSourceSuppressions" json:"dataSourceSuppressions,omitempty"`
	DataSourceFields       string `yaml:"dataSourceFields" json:"dataSourceFields,omitempty"`
	StatCategories         string `yaml:"statCategories" json:"statCategories,omitempty"`
	StartDate              string `yaml:"start_date" json:"start_date,omitempty"`
	EndDate                string `yaml:"end_date" json:"end_date,omitempty"`
}
