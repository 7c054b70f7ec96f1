package registry

// Entity is one raw registry record as returned by the upstream listing and
// single-record endpoints. Field names follow the Brønnøysund wire format;
// the other Nordic registries are mapped onto the same shape server-side by
// their endpoint configuration.
type Entity struct {
	Orgnr            string    `json:"organisasjonsnummer"`
	Name             string    `json:"navn"`
	OrganizationForm *CodeDesc `json:"organisasjonsform,omitempty"`
	FoundedDate      string    `json:"stiftelsesdato,omitempty"`
	RegisteredDate   string    `json:"registreringsdatoEnhetsregisteret,omitempty"`
	IndustryCode1    *CodeDesc `json:"naeringskode1,omitempty"`
	EmployeeCount    int       `json:"antallAnsatte"`
	Website          string    `json:"hjemmeside,omitempty"`
	Phone            string    `json:"telefon,omitempty"`
	Email            string    `json:"epostadresse,omitempty"`
	BusinessAddress  *Address  `json:"forretningsadresse,omitempty"`
	LocationAddress  *Address  `json:"beliggenhetsadresse,omitempty"`
	ParentOrgnr      string    `json:"overordnetEnhet,omitempty"`
	Bankrupt         bool      `json:"konkurs"`
	UnderLiquidation bool      `json:"underAvvikling"`
	UnderCompulsory  bool      `json:"underTvangsavviklingEllerTvangsopplosning"`
}

// CodeDesc is a code with a human-readable description.
type CodeDesc struct {
	Code        string `json:"kode"`
	Description string `json:"beskrivelse"`
}

// Address is a registered address.
type Address struct {
	Lines              []string `json:"adresse,omitempty"`
	PostalCode         string   `json:"postnummer,omitempty"`
	PostalPlace        string   `json:"poststed,omitempty"`
	Municipality       string   `json:"kommune,omitempty"`
	MunicipalityNumber string   `json:"kommunenummer,omitempty"`
}

// Page is one page of entities from the listing endpoint.
type Page struct {
	Records []Entity
	HasNext bool
}

// ChangeRef identifies one changed entity in the change feed.
type ChangeRef struct {
	Orgnr      string `json:"organisasjonsnummer"`
	ChangeType string `json:"endringstype,omitempty"`
}

// ChangePage is one page of change references.
type ChangePage struct {
	ChangedIDs []string
	HasNext    bool
}

// RoleGroup is one group of roles (board, management, auditors, ...) from
// the relations endpoint.
type RoleGroup struct {
	Type  CodeDesc  `json:"type"`
	Roles []RawRole `json:"roller"`
}

// RawRole is one role holder entry.
type RawRole struct {
	Type     CodeDesc      `json:"type"`
	Person   *RawPerson    `json:"person,omitempty"`
	Entity   *RawEntityRef `json:"enhet,omitempty"`
	Resigned bool          `json:"fratraadt"`
}

// RawPerson is a natural person holding a role.
type RawPerson struct {
	FirstName string `json:"fornavn"`
	LastName  string `json:"etternavn"`
	BirthDate string `json:"fodselsdato,omitempty"`
}

// RawEntityRef is a legal entity holding a role.
type RawEntityRef struct {
	Orgnr string   `json:"organisasjonsnummer"`
	Names []string `json:"navn"`
}

// ListFilters narrows the main listing endpoint.
type ListFilters struct {
	Name               string
	OrganizationForm   string
	IndustryCode       string
	MunicipalityNumber string
}

// Wire envelopes. The upstream wraps collections in a HAL-style _embedded
// object and signals further pages via _links.next.

type entitiesEnvelope struct {
	Embedded struct {
		Entities []Entity `json:"enheter"`
	} `json:"_embedded"`
	Links envelopeLinks `json:"_links"`
}

type subEntitiesEnvelope struct {
	Embedded struct {
		Entities []Entity `json:"underenheter"`
	} `json:"_embedded"`
	Links envelopeLinks `json:"_links"`
}

type changesEnvelope struct {
	Embedded struct {
		Changes []ChangeRef `json:"oppdaterteEnheter"`
	} `json:"_embedded"`
	Links envelopeLinks `json:"_links"`
}

type relationsEnvelope struct {
	RoleGroups []RoleGroup `json:"rollegrupper"`
}

type envelopeLinks struct {
	Next *struct {
		Href string `json:"href"`
	} `json:"next,omitempty"`
}
