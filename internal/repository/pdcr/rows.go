package pdcr

// Row types mirror the column lists of the report queries. LogDate is kept as
// the ISO string PDCR stores; the space columns are Teradata FLOAT aggregates.

// TableSpaceRow is one row of PDCRINFO.TableSpace_Hst
type TableSpaceRow struct {
	LogDate         string  `db:"LogDate"`
	DatabaseName    string  `db:"DatabaseName"`
	TableName       string  `db:"Tablename"`
	AccountName     string  `db:"AccountName"`
	CurrentPerm     float64 `db:"CURRENTPERM"`
	PeakPerm        float64 `db:"PEAKPERM"`
	CurrentPermSkew float64 `db:"CURRENTPERMSKEW"`
	PeakPermSkew    float64 `db:"PEAKPERMSKEW"`
}

// DatabaseSpaceRow is one row of PDCRINFO.DatabaseSpace_Hst
type DatabaseSpaceRow struct {
	LogDate         string  `db:"LogDate"`
	DatabaseName    string  `db:"DatabaseName"`
	AccountName     string  `db:"AccountName"`
	CurrentPerm     float64 `db:"CURRENTPERM"`
	PeakPerm        float64 `db:"PEAKPERM"`
	MaxPerm         float64 `db:"MAXPERM"`
	CurrentPermSkew float64 `db:"CURRENTPERMSKEW"`
	PermPctUsed     float64 `db:"PERMPCTUSED"`
}

// SpoolSpaceRow is one row of PDCRINFO.SpoolSpace_Hst
type SpoolSpaceRow struct {
	LogDate       string  `db:"LogDate"`
	UserName      string  `db:"UserName"`
	AccountName   string  `db:"AccountName"`
	CurrentSpool  float64 `db:"CURRENTSPOOL"`
	PeakSpool     float64 `db:"PEAKSPOOL"`
	MaxSpool      float64 `db:"MAXSPOOL"`
	PeakSpoolSkew float64 `db:"PEAKSPOOLSKEW"`
	CurrentTemp   float64 `db:"CURRENTTEMP"`
	PeakTemp      float64 `db:"PEAKTEMP"`
	MaxTemp       float64 `db:"MAXTEMP"`
	PeakTempSkew  float64 `db:"PEAKTEMPSKEW"`
}

// DBCInfoRow is one row of DBC.DBCInfoV
type DBCInfoRow struct {
	InfoKey  string `db:"InfoKey"`
	InfoData string `db:"InfoData"`
}
