package internal

type ServiceType string

const (
	TypeMobile   ServiceType = "Mobile"
	TypeVoIP     ServiceType = "VoIP"
	TypePaging   ServiceType = "Paging"
	TypeLandline ServiceType = "Landline"
	TypeUnknown  ServiceType = ""
)

// KnownTypes lists the classifiable service types in summary order.
var KnownTypes = []ServiceType{TypeMobile, TypeLandline, TypeVoIP, TypePaging}

func (t ServiceType) Valid() bool {
	switch t {
	case TypeMobile, TypeVoIP, TypePaging, TypeLandline, TypeUnknown:
		return true
	default:
		return false
	}
}

// PrefixRecord is one NPA-NXX assignment after normalization.
type PrefixRecord struct {
	Prefix          string      `json:"prefix"`
	OCN             string      `json:"ocn"`
	Company         string      `json:"company"`
	CompanyOriginal string      `json:"company_original"`
	Carrier         string      `json:"carrier"`
	Type            ServiceType `json:"type"`
	RateCenter      string      `json:"rate_center"`
	City            string      `json:"city"`
	State           string      `json:"state"`
	LastSource      string      `json:"last_source"`
}

// Dataset maps a 6-digit prefix to its record.
type Dataset map[string]PrefixRecord

type BuildStats struct {
	FilesScanned int
	FilesSkipped int
	RowsRead     int
	RowsAccepted int
}

type Summary struct {
	Total  int
	ByType map[ServiceType]int
}

type ExtractResult struct {
	Archives  int
	Extracted int
	Corrupt   int
}

type RemoteArchive struct {
	URL          string
	LastModified string
	Size         int64
}
