// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	metaTag = "Meta"

	// Generator is written into Meta/Generator for new databases.
	Generator = "go-kdbx"

	DefaultHistoryMaxItems        = 10
	DefaultHistoryMaxSize         = 6 * 1024 * 1024
	DefaultMaintenanceHistoryDays = 365
)

// Metadata holds the database-wide settings. The setters for the name,
// description, default user name, entry templates group, recycle bin and
// master key stamp their matching "Changed" timestamp.
type Metadata struct {
	observable
	part Part

	generator  string
	headerHash string

	databaseName               string
	databaseNameChanged        time.Time
	databaseDescription        string
	databaseDescriptionChanged time.Time
	defaultUserName            string
	defaultUserNameChanged     time.Time
	maintenanceHistoryDays     int
	color                      *Color
	masterKeyChanged           time.Time
	masterKeyChangeRec         int
	masterKeyChangeForce       int

	memoryProtection *MemoryProtection
	customIcons      *CustomIcons

	recycleBinEnabled          bool
	recycleBinUUID             UUID
	recycleBinChanged          time.Time
	entryTemplatesGroup        UUID
	entryTemplatesGroupChanged time.Time
	historyMaxItems            int
	historyMaxSize             int
	lastSelectedGroup          UUID
	lastTopVisibleGroup        UUID

	binaries        *Binaries
	binariesWritten bool
	customData      *CustomData
}

// NewMetadata returns the settings of a freshly created database.
func NewMetadata(name string) *Metadata {
	t := now()
	return &Metadata{
		part:                       emptyPart(metaTag),
		generator:                  Generator,
		databaseName:               name,
		databaseNameChanged:        t,
		databaseDescriptionChanged: t,
		defaultUserNameChanged:     t,
		maintenanceHistoryDays:     DefaultMaintenanceHistoryDays,
		masterKeyChanged:           t,
		masterKeyChangeRec:         -1,
		masterKeyChangeForce:       -1,
		memoryProtection:           NewMemoryProtection(),
		recycleBinEnabled:          true,
		recycleBinChanged:          t,
		entryTemplatesGroupChanged: t,
		historyMaxItems:            DefaultHistoryMaxItems,
		historyMaxSize:             DefaultHistoryMaxSize,
		binaries:                   NewBinaries(),
	}
}

func parseMetadata(el *etree.Element, ctx *parseContext, opts ParseOptions) (*Metadata, error) {
	part, err := NewPart(metaTag, el)
	if err != nil {
		return nil, err
	}

	r := fieldReader{p: &part}
	m := &Metadata{
		generator:                  r.str("Generator", false),
		headerHash:                 r.str("HeaderHash", false),
		databaseName:               r.str("DatabaseName", false),
		databaseNameChanged:        r.date("DatabaseNameChanged", false),
		databaseDescription:        r.str("DatabaseDescription", false),
		databaseDescriptionChanged: r.date("DatabaseDescriptionChanged", false),
		defaultUserName:            r.str("DefaultUserName", false),
		defaultUserNameChanged:     r.date("DefaultUserNameChanged", false),
		maintenanceHistoryDays:     r.integer("MaintenanceHistoryDays"),
		color:                      r.color("Color"),
		masterKeyChanged:           r.date("MasterKeyChanged", false),
		masterKeyChangeRec:         r.intOr("MasterKeyChangeRec", -1),
		masterKeyChangeForce:       r.intOr("MasterKeyChangeForce", -1),
	}

	m.memoryProtection = NewMemoryProtection()
	if mpEl := r.node(memoryProtectionTag, false); mpEl != nil {
		m.memoryProtection, err = parseMemoryProtection(mpEl)
		r.set(err)
	}
	if iconsEl := r.node(customIconsTag, false); iconsEl != nil {
		m.customIcons, err = parseCustomIcons(iconsEl)
		r.set(err)
	}

	m.recycleBinEnabled = r.boolean("RecycleBinEnabled")
	m.recycleBinUUID = r.uuid("RecycleBinUUID", true)
	m.recycleBinChanged = r.date("RecycleBinChanged", false)
	m.entryTemplatesGroup = r.uuid("EntryTemplatesGroup", true)
	m.entryTemplatesGroupChanged = r.date("EntryTemplatesGroupChanged", false)
	m.historyMaxItems = r.intOr("HistoryMaxItems", -1)
	m.historyMaxSize = r.intOr("HistoryMaxSize", -1)
	m.lastSelectedGroup = r.uuid("LastSelectedGroup", true)
	m.lastTopVisibleGroup = r.uuid("LastTopVisibleGroup", true)

	if binEl := r.node(binariesTag, false); binEl != nil && r.err == nil {
		m.binaries, err = parseBinaries(binEl, ctx.rng)
		m.binariesWritten = true
		r.set(err)
	}
	if m.binaries == nil {
		m.binaries = binariesFromHeader(opts.HeaderBinaries)
	}

	if dataEl := r.node(customDataTag, false); dataEl != nil {
		m.customData, err = parseCustomData(dataEl)
		r.set(err)
	}
	if r.err != nil {
		return nil, r.err
	}

	if err := m.checkHeaderHash(opts); err != nil {
		return nil, err
	}

	m.part = part
	return m, nil
}

func (m *Metadata) checkHeaderHash(opts ParseOptions) error {
	if opts.ExpectedHeaderHash == nil || !opts.Params.UseXMLHeaderAuthentication || m.headerHash == "" {
		return nil
	}

	stored, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m.headerHash))
	if err != nil {
		return invalidValue(metaTag, "HeaderHash", m.headerHash, err)
	}
	if subtle.ConstantTimeCompare(stored, opts.ExpectedHeaderHash) != 1 {
		return newFormatError(ErrHeaderHashMismatch, metaTag, "HeaderHash", "", nil)
	}
	return nil
}

func (m *Metadata) Generator() string {
	return m.generator
}

func (m *Metadata) SetGenerator(g string) {
	m.generator = g
	m.notify("Generator")
}

// HeaderHash is the base64 SHA-256 of the outer header, KDBX 3 only.
func (m *Metadata) HeaderHash() string {
	return m.headerHash
}

func (m *Metadata) SetHeaderHash(hash []byte) {
	m.headerHash = base64.StdEncoding.EncodeToString(hash)
	m.notify("HeaderHash")
}

func (m *Metadata) DatabaseName() string {
	return m.databaseName
}

func (m *Metadata) DatabaseNameChanged() time.Time {
	return m.databaseNameChanged
}

func (m *Metadata) SetDatabaseName(name string) {
	m.databaseName = name
	m.databaseNameChanged = now()
	m.notify("DatabaseName")
}

func (m *Metadata) DatabaseDescription() string {
	return m.databaseDescription
}

func (m *Metadata) DatabaseDescriptionChanged() time.Time {
	return m.databaseDescriptionChanged
}

func (m *Metadata) SetDatabaseDescription(desc string) {
	m.databaseDescription = desc
	m.databaseDescriptionChanged = now()
	m.notify("DatabaseDescription")
}

func (m *Metadata) DefaultUserName() string {
	return m.defaultUserName
}

func (m *Metadata) DefaultUserNameChanged() time.Time {
	return m.defaultUserNameChanged
}

func (m *Metadata) SetDefaultUserName(name string) {
	m.defaultUserName = name
	m.defaultUserNameChanged = now()
	m.notify("DefaultUserName")
}

func (m *Metadata) MaintenanceHistoryDays() int {
	return m.maintenanceHistoryDays
}

func (m *Metadata) SetMaintenanceHistoryDays(days int) {
	m.maintenanceHistoryDays = days
	m.notify("MaintenanceHistoryDays")
}

func (m *Metadata) Color() *Color {
	return m.color
}

func (m *Metadata) SetColor(c *Color) {
	m.color = c
	m.notify("Color")
}

func (m *Metadata) MasterKeyChanged() time.Time {
	return m.masterKeyChanged
}

// TouchMasterKey records that the composite key was changed now.
func (m *Metadata) TouchMasterKey() {
	m.masterKeyChanged = now()
	m.notify("MasterKeyChanged")
}

// MasterKeyChangeRec is the recommended key rotation in days, -1 for none.
func (m *Metadata) MasterKeyChangeRec() int {
	return m.masterKeyChangeRec
}

func (m *Metadata) SetMasterKeyChangeRec(days int) {
	m.masterKeyChangeRec = days
	m.notify("MasterKeyChangeRec")
}

// MasterKeyChangeForce is the forced key rotation in days, -1 for none.
func (m *Metadata) MasterKeyChangeForce() int {
	return m.masterKeyChangeForce
}

func (m *Metadata) SetMasterKeyChangeForce(days int) {
	m.masterKeyChangeForce = days
	m.notify("MasterKeyChangeForce")
}

func (m *Metadata) MemoryProtection() *MemoryProtection {
	return m.memoryProtection
}

// CustomIcons returns nil when the database has none.
func (m *Metadata) CustomIcons() *CustomIcons {
	return m.customIcons
}

// AddCustomIcon registers icon, creating the icon list on first use.
func (m *Metadata) AddCustomIcon(icon *CustomIcon) {
	if m.customIcons == nil {
		m.customIcons = NewCustomIcons()
	}
	m.customIcons.Add(icon)
	m.notify("CustomIcons")
}

func (m *Metadata) RecycleBinEnabled() bool {
	return m.recycleBinEnabled
}

func (m *Metadata) SetRecycleBinEnabled(enabled bool) {
	m.recycleBinEnabled = enabled
	m.notify("RecycleBinEnabled")
}

func (m *Metadata) RecycleBinUUID() UUID {
	return m.recycleBinUUID
}

func (m *Metadata) RecycleBinChanged() time.Time {
	return m.recycleBinChanged
}

func (m *Metadata) SetRecycleBin(id UUID) {
	m.recycleBinUUID = id
	m.recycleBinChanged = now()
	m.notify("RecycleBinUUID")
}

func (m *Metadata) EntryTemplatesGroup() UUID {
	return m.entryTemplatesGroup
}

func (m *Metadata) EntryTemplatesGroupChanged() time.Time {
	return m.entryTemplatesGroupChanged
}

func (m *Metadata) SetEntryTemplatesGroup(id UUID) {
	m.entryTemplatesGroup = id
	m.entryTemplatesGroupChanged = now()
	m.notify("EntryTemplatesGroup")
}

// HistoryMaxItems caps each entry's history; negative means unbounded.
func (m *Metadata) HistoryMaxItems() int {
	return m.historyMaxItems
}

func (m *Metadata) SetHistoryMaxItems(n int) {
	m.historyMaxItems = n
	m.notify("HistoryMaxItems")
}

func (m *Metadata) HistoryMaxSize() int {
	return m.historyMaxSize
}

func (m *Metadata) SetHistoryMaxSize(n int) {
	m.historyMaxSize = n
	m.notify("HistoryMaxSize")
}

func (m *Metadata) LastSelectedGroup() UUID {
	return m.lastSelectedGroup
}

func (m *Metadata) SetLastSelectedGroup(id UUID) {
	m.lastSelectedGroup = id
	m.notify("LastSelectedGroup")
}

func (m *Metadata) LastTopVisibleGroup() UUID {
	return m.lastTopVisibleGroup
}

func (m *Metadata) SetLastTopVisibleGroup(id UUID) {
	m.lastTopVisibleGroup = id
	m.notify("LastTopVisibleGroup")
}

// Binaries is the attachment pool. It is never nil.
func (m *Metadata) Binaries() *Binaries {
	return m.binaries
}

// CustomData returns nil when Meta carries none.
func (m *Metadata) CustomData() *CustomData {
	return m.customData
}

func (m *Metadata) SetCustomData(data *CustomData) {
	m.customData = data
	m.notify("CustomData")
}

func (m *Metadata) Equal(other *Metadata) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.generator == other.generator &&
		m.headerHash == other.headerHash &&
		m.databaseName == other.databaseName &&
		m.databaseNameChanged.Equal(other.databaseNameChanged) &&
		m.databaseDescription == other.databaseDescription &&
		m.databaseDescriptionChanged.Equal(other.databaseDescriptionChanged) &&
		m.defaultUserName == other.defaultUserName &&
		m.defaultUserNameChanged.Equal(other.defaultUserNameChanged) &&
		m.maintenanceHistoryDays == other.maintenanceHistoryDays &&
		equalColor(m.color, other.color) &&
		m.masterKeyChanged.Equal(other.masterKeyChanged) &&
		m.masterKeyChangeRec == other.masterKeyChangeRec &&
		m.masterKeyChangeForce == other.masterKeyChangeForce &&
		m.memoryProtection.Equal(other.memoryProtection) &&
		m.customIcons.Equal(other.customIcons) &&
		m.recycleBinEnabled == other.recycleBinEnabled &&
		m.recycleBinUUID == other.recycleBinUUID &&
		m.recycleBinChanged.Equal(other.recycleBinChanged) &&
		m.entryTemplatesGroup == other.entryTemplatesGroup &&
		m.entryTemplatesGroupChanged.Equal(other.entryTemplatesGroupChanged) &&
		m.historyMaxItems == other.historyMaxItems &&
		m.historyMaxSize == other.historyMaxSize &&
		m.lastSelectedGroup == other.lastSelectedGroup &&
		m.lastTopVisibleGroup == other.lastTopVisibleGroup &&
		m.binaries.Equal(other.binaries) &&
		m.customData.Equal(other.customData)
}

func (m *Metadata) toXML(w *writeContext) *etree.Element {
	return m.part.Build(func(el *etree.Element) {
		addText(el, "Generator", m.generator)
		if w.params.UseXMLHeaderAuthentication && m.headerHash != "" {
			addText(el, "HeaderHash", m.headerHash)
		}
		addText(el, "DatabaseName", m.databaseName)
		addDate(el, "DatabaseNameChanged", m.databaseNameChanged, w.params)
		addText(el, "DatabaseDescription", m.databaseDescription)
		addDate(el, "DatabaseDescriptionChanged", m.databaseDescriptionChanged, w.params)
		addText(el, "DefaultUserName", m.defaultUserName)
		addDate(el, "DefaultUserNameChanged", m.defaultUserNameChanged, w.params)
		addInt(el, "MaintenanceHistoryDays", m.maintenanceHistoryDays)
		addText(el, "Color", formatColor(m.color))
		addDate(el, "MasterKeyChanged", m.masterKeyChanged, w.params)
		addInt(el, "MasterKeyChangeRec", m.masterKeyChangeRec)
		addInt(el, "MasterKeyChangeForce", m.masterKeyChangeForce)
		el.AddChild(m.memoryProtection.toXML(w))
		if m.customIcons != nil {
			el.AddChild(m.customIcons.toXML(w))
		}
		addBool(el, "RecycleBinEnabled", m.recycleBinEnabled)
		addUUID(el, "RecycleBinUUID", m.recycleBinUUID)
		addDate(el, "RecycleBinChanged", m.recycleBinChanged, w.params)
		addUUID(el, "EntryTemplatesGroup", m.entryTemplatesGroup)
		addDate(el, "EntryTemplatesGroupChanged", m.entryTemplatesGroupChanged, w.params)
		addInt(el, "HistoryMaxItems", m.historyMaxItems)
		addInt(el, "HistoryMaxSize", m.historyMaxSize)
		addUUID(el, "LastSelectedGroup", m.lastSelectedGroup)
		addUUID(el, "LastTopVisibleGroup", m.lastTopVisibleGroup)
		if w.params.BinariesInXML && (m.binariesWritten || m.binaries.Len() > 0) {
			el.AddChild(m.binaries.toXML(w))
		}
		if m.customData != nil {
			el.AddChild(m.customData.toXML(w))
		}
	})
}
