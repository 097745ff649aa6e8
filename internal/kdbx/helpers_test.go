// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

const (
	rootGroupUUID  = "AQIDBAUGBwgJCgsMDQ4PEA=="
	sampleEntryID  = "EBESExQVFhcYGRobHB0eHw=="
	subGroupUUID   = "ICEiIyQlJicoKSorLC0uLw=="
	secondEntryID  = "MDEyMzQ1Njc4OTo7PD0+Pw=="
	sampleTimesXML = `<Times>
	<LastModificationTime>2024-01-02T03:04:05Z</LastModificationTime>
	<CreationTime>2024-01-02T03:04:05Z</CreationTime>
	<LastAccessTime>2024-01-02T03:04:05Z</LastAccessTime>
	<ExpiryTime>9999-12-31T23:59:59Z</ExpiryTime>
	<Expires>False</Expires>
	<UsageCount>3</UsageCount>
	<LocationChanged>2024-01-02T03:04:05Z</LocationChanged>
</Times>`
)

var streamKey = []byte("inner-random-stream-key-for-tests")

// newStream returns a fresh inner stream; two calls yield the same bytes.
func newStream() crypto.RandomSource {
	return crypto.NewSalsa20Source(streamKey)
}

// protect encrypts clear with the next bytes of stream, as a KeePass writer
// would.
func protect(stream crypto.RandomSource, clear string) string {
	out := make([]byte, len(clear))
	subtle.XORBytes(out, []byte(clear), stream.GetBytes(len(clear)))
	return base64.StdEncoding.EncodeToString(out)
}

const metaXML = `<Meta>
	<Generator>KeePass</Generator>
	<DatabaseName>Sample DB</DatabaseName>
	<DatabaseNameChanged>2024-01-02T03:04:05Z</DatabaseNameChanged>
	<DatabaseDescription></DatabaseDescription>
	<DatabaseDescriptionChanged>2024-01-02T03:04:05Z</DatabaseDescriptionChanged>
	<DefaultUserName>alice</DefaultUserName>
	<DefaultUserNameChanged>2024-01-02T03:04:05Z</DefaultUserNameChanged>
	<MaintenanceHistoryDays>365</MaintenanceHistoryDays>
	<Color>#FF8000</Color>
	<MasterKeyChanged>2024-01-02T03:04:05Z</MasterKeyChanged>
	<MasterKeyChangeRec>-1</MasterKeyChangeRec>
	<MasterKeyChangeForce>-1</MasterKeyChangeForce>
	<MemoryProtection>
		<ProtectTitle>False</ProtectTitle>
		<ProtectUserName>False</ProtectUserName>
		<ProtectPassword>True</ProtectPassword>
		<ProtectURL>False</ProtectURL>
		<ProtectNotes>False</ProtectNotes>
	</MemoryProtection>
	<RecycleBinEnabled>True</RecycleBinEnabled>
	<RecycleBinUUID>AAAAAAAAAAAAAAAAAAAAAA==</RecycleBinUUID>
	<RecycleBinChanged>2024-01-02T03:04:05Z</RecycleBinChanged>
	<EntryTemplatesGroup>AAAAAAAAAAAAAAAAAAAAAA==</EntryTemplatesGroup>
	<EntryTemplatesGroupChanged>2024-01-02T03:04:05Z</EntryTemplatesGroupChanged>
	<HistoryMaxItems>10</HistoryMaxItems>
	<HistoryMaxSize>6291456</HistoryMaxSize>
	<LastSelectedGroup>AAAAAAAAAAAAAAAAAAAAAA==</LastSelectedGroup>
	<LastTopVisibleGroup>AAAAAAAAAAAAAAAAAAAAAA==</LastTopVisibleGroup>
	<Binaries>
		<Binary ID="0">aGVsbG8gd29ybGQ=</Binary>
	</Binaries>
	<CustomData>
		<Item><Key>plugin.setting</Key><Value>on</Value></Item>
	</CustomData>
	<UnknownMetaSetting>42</UnknownMetaSetting>
</Meta>`

// sampleXML builds a KDBX 3 payload: a root group "Root" holding one entry
// "Sample" with the protected password "hunter2" and one older version in
// its history, plus a sub group with a second entry. Unknown elements are
// sprinkled in to exercise round-trip preservation.
func sampleXML() string {
	stream := newStream()
	password := protect(stream, "hunter2")
	oldPassword := protect(stream, "hunter1")
	secondPassword := protect(stream, "s3cret")

	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<KeePassFile>
%s
<Root>
	<Group>
		<UUID>%s</UUID>
		<Name>Root</Name>
		<Notes></Notes>
		<IconID>48</IconID>
		%s
		<IsExpanded>True</IsExpanded>
		<DefaultAutoTypeSequence></DefaultAutoTypeSequence>
		<EnableAutoType>null</EnableAutoType>
		<EnableSearching>null</EnableSearching>
		<LastTopVisibleEntry>AAAAAAAAAAAAAAAAAAAAAA==</LastTopVisibleEntry>
		<Entry>
			<UUID>%s</UUID>
			<IconID>0</IconID>
			<ForegroundColor></ForegroundColor>
			<BackgroundColor>#00FF00</BackgroundColor>
			<OverrideURL></OverrideURL>
			<Tags>work;mail</Tags>
			%s
			<String><Key>Title</Key><Value>Sample</Value></String>
			<String><Key>Password</Key><Value Protected="True">%s</Value></String>
			<String><Key>Custom</Key><Value>custom value</Value></String>
			<Binary><Key>hello.txt</Key><Value Ref="0"/></Binary>
			<AutoType>
				<Enabled>True</Enabled>
				<DataTransferObfuscation>0</DataTransferObfuscation>
				<Association><Window>Login*</Window><KeystrokeSequence>{USERNAME}</KeystrokeSequence></Association>
			</AutoType>
			<FutureFeature version="9">keep me</FutureFeature>
			<History>
				<Entry>
					<UUID>%s</UUID>
					<IconID>0</IconID>
					<ForegroundColor></ForegroundColor>
					<BackgroundColor></BackgroundColor>
					<OverrideURL></OverrideURL>
					<Tags></Tags>
					%s
					<String><Key>Title</Key><Value>Sample</Value></String>
					<String><Key>Password</Key><Value Protected="True">%s</Value></String>
				</Entry>
			</History>
		</Entry>
		<Group>
			<UUID>%s</UUID>
			<Name>Mail</Name>
			<Notes>inbox logins</Notes>
			<IconID>19</IconID>
			%s
			<IsExpanded>False</IsExpanded>
			<DefaultAutoTypeSequence></DefaultAutoTypeSequence>
			<EnableAutoType>false</EnableAutoType>
			<EnableSearching>true</EnableSearching>
			<LastTopVisibleEntry>AAAAAAAAAAAAAAAAAAAAAA==</LastTopVisibleEntry>
			<Entry>
				<UUID>%s</UUID>
				<IconID>1</IconID>
				<ForegroundColor></ForegroundColor>
				<BackgroundColor></BackgroundColor>
				<OverrideURL></OverrideURL>
				<Tags></Tags>
				%s
				<String><Key>Title</Key><Value>Webmail</Value></String>
				<String><Key>UserName</Key><Value>bob</Value></String>
				<String><Key>Password</Key><Value Protected="True">%s</Value></String>
			</Entry>
			<GroupExtension>x</GroupExtension>
		</Group>
	</Group>
	<DeletedObjects>
		<DeletedObject><UUID>AAAAAAAAAAAAAAAAAAAAAA==</UUID><DeletionTime>2024-01-02T03:04:05Z</DeletionTime></DeletedObject>
	</DeletedObjects>
</Root>
</KeePassFile>`,
		metaXML,
		rootGroupUUID, sampleTimesXML,
		sampleEntryID, sampleTimesXML, password,
		sampleEntryID, sampleTimesXML, oldPassword,
		subGroupUUID, sampleTimesXML,
		secondEntryID, sampleTimesXML, secondPassword,
	)
}

func parseSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse([]byte(sampleXML()), newStream(), ParseOptions{Params: ParamsFor(3)})
	require.NoError(t, err)
	return doc
}

func sampleEntry(t *testing.T, doc *Document) *Entry {
	t.Helper()
	n := doc.FindNode(sampleEntryID)
	require.NotNil(t, n)
	e, ok := n.(*Entry)
	require.True(t, ok)
	return e
}

func mustElement(t *testing.T, xml string) *etree.Element {
	t.Helper()
	d := etree.NewDocument()
	require.NoError(t, d.ReadFromString(xml))
	require.NotNil(t, d.Root())
	return d.Root()
}

// freezeTime pins the package clock for the duration of the test.
func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	old := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = old })
}

// newTestTree builds Root -> A -> B with an entry in B, all detached from
// any document.
func newTestTree(t *testing.T) (root, a, b *Group, e *Entry) {
	t.Helper()
	meta := NewMetadata("test")
	root = NewGroup(nil, "Root")
	a = NewGroup(root, "A")
	root.AddChild(a)
	b = NewGroup(a, "B")
	a.AddChild(b)
	e = NewEntry(b, nil, meta)
	e.Title().SetClearValue("Mail login")
	b.AddChild(e)
	return root, a, b, e
}
