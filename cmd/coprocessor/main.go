// coprocessor 证明编排服务与命令行工具
package main

func main() {
	Execute()
}
