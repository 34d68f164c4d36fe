package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
	"golang.org/x/crypto/ssh"
)

// TransferService SFTP文件传输：切换到SSH管理后向设备推送固件与配置文件，
// 或从设备取回文件。
type TransferService struct {
	cfg *config.Config
}

// NewTransferService 创建文件传输服务
func NewTransferService(cfg *config.Config) *TransferService {
	return &TransferService{cfg: cfg}
}

// TransferRequest 文件传输请求
type TransferRequest struct {
	Host       string `json:"host" binding:"required"`
	Port       int    `json:"port"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	LocalPath  string `json:"local_path" binding:"required"`
	RemotePath string `json:"remote_path" binding:"required"`
}

// TransferResult 文件传输结果
type TransferResult struct {
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

// dial 建立SSH连接并打开SFTP子系统
func (s *TransferService) dial(req TransferRequest) (*ssh.Client, *sftp.Client, error) {
	if req.Port <= 0 {
		req.Port = s.cfg.SSH.Port
	}
	sshConfig := &ssh.ClientConfig{
		User: req.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(req.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.cfg.SSH.ConnectTimeout,
	}

	addr := fmt.Sprintf("%s:%d", req.Host, req.Port)
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("ssh dial %s failed: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("sftp subsystem failed: %w", err)
	}
	return client, sftpClient, nil
}

// Upload 上传本地文件到设备
func (s *TransferService) Upload(req TransferRequest) (*TransferResult, error) {
	start := time.Now()

	local, err := os.Open(req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("open local file failed: %w", err)
	}
	defer local.Close()

	client, sftpClient, err := s.dial(req)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	defer sftpClient.Close()

	if dir := filepath.ToSlash(filepath.Dir(req.RemotePath)); dir != "." && dir != "/" {
		if err := sftpClient.MkdirAll(dir); err != nil {
			return nil, fmt.Errorf("create remote dir failed: %w", err)
		}
	}

	remote, err := sftpClient.Create(req.RemotePath)
	if err != nil {
		return nil, fmt.Errorf("create remote file failed: %w", err)
	}
	defer remote.Close()

	n, err := io.Copy(remote, local)
	if err != nil {
		return nil, fmt.Errorf("upload failed after %d bytes: %w", n, err)
	}

	logger.Info("file uploaded", "host", req.Host, "remote_path", req.RemotePath,
		"bytes", n, "duration", time.Since(start).Round(time.Millisecond))
	return &TransferResult{Bytes: n, Duration: time.Since(start)}, nil
}

// Download 从设备下载文件到本地
func (s *TransferService) Download(req TransferRequest) (*TransferResult, error) {
	start := time.Now()

	client, sftpClient, err := s.dial(req)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	defer sftpClient.Close()

	remote, err := sftpClient.Open(req.RemotePath)
	if err != nil {
		return nil, fmt.Errorf("open remote file failed: %w", err)
	}
	defer remote.Close()

	if dir := filepath.Dir(req.LocalPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local dir failed: %w", err)
		}
	}

	local, err := os.Create(req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("create local file failed: %w", err)
	}
	defer local.Close()

	n, err := io.Copy(local, remote)
	if err != nil {
		return nil, fmt.Errorf("download failed after %d bytes: %w", n, err)
	}

	logger.Info("file downloaded", "host", req.Host, "remote_path", req.RemotePath,
		"bytes", n, "duration", time.Since(start).Round(time.Millisecond))
	return &TransferResult{Bytes: n, Duration: time.Since(start)}, nil
}
