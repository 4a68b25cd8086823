//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"encoding/xml"
	"time"
)

const (
	xmlnsS3  = "http://s3.amazonaws.com/doc/2006-03-01/"
	xmlnsXsi = "http://www.w3.org/2001/XMLSchema-instance"
)

// contentTime renders timestamps in the wire spelling the SDK XML
// decoders expect, millisecond precision with a literal Z.
type contentTime struct {
	time.Time
}

func newContentTime(t time.Time) contentTime {
	return contentTime{t.UTC()}
}

func (c contentTime) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if c.IsZero() {
		return nil
	}
	return e.EncodeElement(c.UTC().Format("2006-01-02T15:04:05.000Z"), start)
}

func (c *contentTime) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return err
	}
	c.Time = t
	return nil
}

type ownerInfo struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

type bucketInfo struct {
	Name         string      `xml:"Name"`
	CreationDate contentTime `xml:"CreationDate"`
}

type listAllMyBucketsResult struct {
	XMLName xml.Name     `xml:"ListAllMyBucketsResult"`
	Xmlns   string       `xml:"xmlns,attr"`
	Owner   ownerInfo    `xml:"Owner"`
	Buckets []bucketInfo `xml:"Buckets>Bucket"`
}

type commonPrefix struct {
	Prefix string `xml:"Prefix"`
}

type objectContent struct {
	Key          string      `xml:"Key"`
	LastModified contentTime `xml:"LastModified"`
	ETag         string      `xml:"ETag"`
	Size         int64       `xml:"Size"`
	StorageClass string      `xml:"StorageClass,omitempty"`
	Owner        *ownerInfo  `xml:"Owner,omitempty"`
}

type listBucketResult struct {
	XMLName        xml.Name        `xml:"ListBucketResult"`
	Xmlns          string          `xml:"xmlns,attr"`
	Name           string          `xml:"Name"`
	Prefix         string          `xml:"Prefix"`
	Marker         string          `xml:"Marker"`
	NextMarker     string          `xml:"NextMarker,omitempty"`
	MaxKeys        int             `xml:"MaxKeys"`
	Delimiter      string          `xml:"Delimiter,omitempty"`
	EncodingType   string          `xml:"EncodingType,omitempty"`
	IsTruncated    bool            `xml:"IsTruncated"`
	Contents       []objectContent `xml:"Contents"`
	CommonPrefixes []commonPrefix  `xml:"CommonPrefixes,omitempty"`
}

type listBucketResultV2 struct {
	XMLName               xml.Name        `xml:"ListBucketResult"`
	Xmlns                 string          `xml:"xmlns,attr"`
	Name                  string          `xml:"Name"`
	Prefix                string          `xml:"Prefix"`
	StartAfter            string          `xml:"StartAfter,omitempty"`
	ContinuationToken     string          `xml:"ContinuationToken,omitempty"`
	NextContinuationToken string          `xml:"NextContinuationToken,omitempty"`
	KeyCount              int             `xml:"KeyCount"`
	MaxKeys               int             `xml:"MaxKeys"`
	Delimiter             string          `xml:"Delimiter,omitempty"`
	EncodingType          string          `xml:"EncodingType,omitempty"`
	IsTruncated           bool            `xml:"IsTruncated"`
	Contents              []objectContent `xml:"Contents"`
	CommonPrefixes        []commonPrefix  `xml:"CommonPrefixes,omitempty"`
}

type versionEntry struct {
	Key          string      `xml:"Key"`
	VersionId    string      `xml:"VersionId"`
	IsLatest     bool        `xml:"IsLatest"`
	LastModified contentTime `xml:"LastModified"`
	ETag         string      `xml:"ETag"`
	Size         int64       `xml:"Size"`
	StorageClass string      `xml:"StorageClass,omitempty"`
	Owner        *ownerInfo  `xml:"Owner,omitempty"`
}

type deleteMarkerEntry struct {
	Key          string      `xml:"Key"`
	VersionId    string      `xml:"VersionId"`
	IsLatest     bool        `xml:"IsLatest"`
	LastModified contentTime `xml:"LastModified"`
	Owner        *ownerInfo  `xml:"Owner,omitempty"`
}

type listVersionsResult struct {
	XMLName             xml.Name            `xml:"ListVersionsResult"`
	Xmlns               string              `xml:"xmlns,attr"`
	Name                string              `xml:"Name"`
	Prefix              string              `xml:"Prefix"`
	KeyMarker           string              `xml:"KeyMarker"`
	VersionIdMarker     string              `xml:"VersionIdMarker"`
	NextKeyMarker       string              `xml:"NextKeyMarker,omitempty"`
	NextVersionIdMarker string              `xml:"NextVersionIdMarker,omitempty"`
	MaxKeys             int                 `xml:"MaxKeys"`
	Delimiter           string              `xml:"Delimiter,omitempty"`
	IsTruncated         bool                `xml:"IsTruncated"`
	Versions            []versionEntry      `xml:"Version"`
	DeleteMarkers       []deleteMarkerEntry `xml:"DeleteMarker"`
	CommonPrefixes      []commonPrefix      `xml:"CommonPrefixes,omitempty"`
}

type objectID struct {
	Key       string `xml:"Key"`
	VersionId string `xml:"VersionId,omitempty"`
}

type deleteRequest struct {
	XMLName xml.Name   `xml:"Delete"`
	Objects []objectID `xml:"Object"`
	Quiet   bool       `xml:"Quiet"`
}

type deletedObject struct {
	Key                   string `xml:"Key"`
	VersionId             string `xml:"VersionId,omitempty"`
	DeleteMarker          bool   `xml:"DeleteMarker,omitempty"`
	DeleteMarkerVersionId string `xml:"DeleteMarkerVersionId,omitempty"`
}

type deleteErrorEntry struct {
	Key     string `xml:"Key"`
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

type deleteResult struct {
	XMLName xml.Name           `xml:"DeleteResult"`
	Xmlns   string             `xml:"xmlns,attr"`
	Deleted []deletedObject    `xml:"Deleted"`
	Errors  []deleteErrorEntry `xml:"Error"`
}

type copyObjectResult struct {
	XMLName      xml.Name    `xml:"CopyObjectResult"`
	Xmlns        string      `xml:"xmlns,attr"`
	ETag         string      `xml:"ETag"`
	LastModified contentTime `xml:"LastModified"`
}

type initiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Xmlns    string   `xml:"xmlns,attr"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadId string   `xml:"UploadId"`
}

type completedPart struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

type completeMultipartUpload struct {
	XMLName xml.Name        `xml:"CompleteMultipartUpload"`
	Parts   []completedPart `xml:"Part"`
}

type completeMultipartUploadResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Xmlns    string   `xml:"xmlns,attr"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	ETag     string   `xml:"ETag"`
}

type partEntry struct {
	PartNumber   int         `xml:"PartNumber"`
	LastModified contentTime `xml:"LastModified"`
	ETag         string      `xml:"ETag"`
	Size         int64       `xml:"Size"`
}

type listPartsResult struct {
	XMLName              xml.Name    `xml:"ListPartsResult"`
	Xmlns                string      `xml:"xmlns,attr"`
	Bucket               string      `xml:"Bucket"`
	Key                  string      `xml:"Key"`
	UploadId             string      `xml:"UploadId"`
	Initiator            *ownerInfo  `xml:"Initiator,omitempty"`
	Owner                *ownerInfo  `xml:"Owner,omitempty"`
	StorageClass         string      `xml:"StorageClass,omitempty"`
	PartNumberMarker     int         `xml:"PartNumberMarker"`
	NextPartNumberMarker int         `xml:"NextPartNumberMarker,omitempty"`
	MaxParts             int         `xml:"MaxParts"`
	IsTruncated          bool        `xml:"IsTruncated"`
	Parts                []partEntry `xml:"Part"`
}

type uploadEntry struct {
	Key          string      `xml:"Key"`
	UploadId     string      `xml:"UploadId"`
	Initiator    *ownerInfo  `xml:"Initiator,omitempty"`
	Owner        *ownerInfo  `xml:"Owner,omitempty"`
	StorageClass string      `xml:"StorageClass,omitempty"`
	Initiated    contentTime `xml:"Initiated"`
}

type listMultipartUploadsResult struct {
	XMLName            xml.Name       `xml:"ListMultipartUploadsResult"`
	Xmlns              string         `xml:"xmlns,attr"`
	Bucket             string         `xml:"Bucket"`
	KeyMarker          string         `xml:"KeyMarker"`
	UploadIdMarker     string         `xml:"UploadIdMarker"`
	NextKeyMarker      string         `xml:"NextKeyMarker,omitempty"`
	NextUploadIdMarker string         `xml:"NextUploadIdMarker,omitempty"`
	Prefix             string         `xml:"Prefix,omitempty"`
	Delimiter          string         `xml:"Delimiter,omitempty"`
	MaxUploads         int            `xml:"MaxUploads"`
	IsTruncated        bool           `xml:"IsTruncated"`
	Uploads            []uploadEntry  `xml:"Upload"`
	CommonPrefixes     []commonPrefix `xml:"CommonPrefixes,omitempty"`
}

type wireTag struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}

type tagSet struct {
	Tags []wireTag `xml:"Tag"`
}

type tagging struct {
	XMLName xml.Name `xml:"Tagging"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	TagSet  tagSet   `xml:"TagSet"`
}

type versioningConfiguration struct {
	XMLName xml.Name `xml:"VersioningConfiguration"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Status  string   `xml:"Status,omitempty"`
}

type corsRule struct {
	ID             string   `xml:"ID,omitempty"`
	AllowedOrigins []string `xml:"AllowedOrigin"`
	AllowedMethods []string `xml:"AllowedMethod"`
	AllowedHeaders []string `xml:"AllowedHeader,omitempty"`
	ExposeHeaders  []string `xml:"ExposeHeader,omitempty"`
	MaxAgeSeconds  *int     `xml:"MaxAgeSeconds,omitempty"`
}

type corsConfiguration struct {
	XMLName xml.Name   `xml:"CORSConfiguration"`
	Xmlns   string     `xml:"xmlns,attr,omitempty"`
	Rules   []corsRule `xml:"CORSRule"`
}

// grantee carries the xsi:type discriminator of the ACL grant variants.
type grantee struct {
	XMLName      xml.Name `xml:"Grantee"`
	XmlnsXsi     string   `xml:"xmlns:xsi,attr"`
	XsiType      string   `xml:"xsi:type,attr"`
	ID           string   `xml:"ID,omitempty"`
	DisplayName  string   `xml:"DisplayName,omitempty"`
	URI          string   `xml:"URI,omitempty"`
	EmailAddress string   `xml:"EmailAddress,omitempty"`
}

// The xsi prefix resolves to the XML Schema-instance namespace on
// decode, so the prefixed field tags above match only on encode. The
// discriminator is recovered from the namespace-resolved attribute.
func (g *grantee) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type plain grantee
	var p plain
	if err := d.DecodeElement(&p, &start); err != nil {
		return err
	}
	*g = grantee(p)
	g.XmlnsXsi = xmlnsXsi
	for _, attr := range start.Attr {
		if attr.Name.Local == "type" {
			g.XsiType = attr.Value
		}
	}
	return nil
}

type grant struct {
	Grantee    grantee `xml:"Grantee"`
	Permission string  `xml:"Permission"`
}

type accessControlPolicy struct {
	XMLName xml.Name  `xml:"AccessControlPolicy"`
	Xmlns   string    `xml:"xmlns,attr,omitempty"`
	Owner   ownerInfo `xml:"Owner"`
	Grants  []grant   `xml:"AccessControlList>Grant"`
}

type locationConstraint struct {
	XMLName  xml.Name `xml:"LocationConstraint"`
	Xmlns    string   `xml:"xmlns,attr"`
	Location string   `xml:",chardata"`
}

type createBucketConfiguration struct {
	XMLName            xml.Name `xml:"CreateBucketConfiguration"`
	LocationConstraint string   `xml:"LocationConstraint"`
}

type errorResult struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource,omitempty"`
	RequestId string   `xml:"RequestId"`
}

type postResponse struct {
	XMLName  xml.Name `xml:"PostResponse"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	ETag     string   `xml:"ETag"`
}
