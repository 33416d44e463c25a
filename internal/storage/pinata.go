package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/resilience"
)

const pinFilePath = "/pinning/pinFileToIPFS"

type Pinata struct {
	baseURL    string
	jwt        string
	httpClient *http.Client
}

func NewPinata(baseURL, jwt string, httpClient *http.Client) *Pinata {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Pinata{
		baseURL:    strings.TrimRight(baseURL, "/"),
		jwt:        jwt,
		httpClient: httpClient,
	}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func (p *Pinata) Upload(ctx context.Context, content []byte, fileName string) (model.StoredObject, error) {
	body, contentType, err := pinForm(content, fileName)
	if err != nil {
		return model.StoredObject{}, fmt.Errorf("pinata upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+pinFilePath, bytes.NewReader(body))
	if err != nil {
		return model.StoredObject{}, fmt.Errorf("create pinata request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.jwt)
	req.Header.Set("Content-Type", contentType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return model.StoredObject{}, fmt.Errorf("pinata upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return model.StoredObject{}, resilience.NewHTTPStatusError("pinata", "pin", resp)
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.StoredObject{}, fmt.Errorf("decode pinata response: %w", err)
	}
	if strings.TrimSpace(out.IpfsHash) == "" {
		return model.StoredObject{}, fmt.Errorf("pinata upload: response has no IpfsHash")
	}
	return model.StoredObject{CID: out.IpfsHash, URI: ipfsURI(out.IpfsHash)}, nil
}

func pinForm(content []byte, fileName string) ([]byte, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", ContentTypePDF)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}

	metadata, err := json.Marshal(map[string]string{"name": fileName})
	if err != nil {
		return nil, "", err
	}
	if err := form.WriteField("pinataMetadata", string(metadata)); err != nil {
		return nil, "", err
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), form.FormDataContentType(), nil
}
