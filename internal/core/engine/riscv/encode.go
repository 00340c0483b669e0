package riscv

// 指令字段解码

func decodeU(instr uint32) (rd uint32, imm uint32) {
	return (instr >> 7) & 0x1F, instr & 0xFFFFF000
}

func decodeJ(instr uint32) (rd uint32, imm int32) {
	rd = (instr >> 7) & 0x1F
	// imm[20|10:1|11|19:12]
	raw := ((instr >> 31) << 20) |
		(((instr >> 12) & 0xFF) << 12) |
		(((instr >> 20) & 0x1) << 11) |
		(((instr >> 21) & 0x3FF) << 1)
	if raw&(1<<20) != 0 {
		raw |= 0xFFE00000
	}
	return rd, int32(raw)
}

func decodeI(instr uint32) (rd, rs1 uint32, imm int32) {
	return (instr >> 7) & 0x1F, (instr >> 15) & 0x1F, int32(instr) >> 20
}

func decodeS(instr uint32) (rs1, rs2 uint32, imm int32) {
	raw := ((instr >> 7) & 0x1F) | (((instr >> 25) & 0x7F) << 5)
	if raw&(1<<11) != 0 {
		raw |= 0xFFFFF000
	}
	return (instr >> 15) & 0x1F, (instr >> 20) & 0x1F, int32(raw)
}

func decodeB(instr uint32) (rs1, rs2 uint32, imm int32) {
	// imm[12|10:5|4:1|11]
	raw := (((instr >> 31) & 0x1) << 12) |
		(((instr >> 7) & 0x1) << 11) |
		(((instr >> 25) & 0x3F) << 5) |
		(((instr >> 8) & 0xF) << 1)
	if raw&(1<<12) != 0 {
		raw |= 0xFFFFE000
	}
	return (instr >> 15) & 0x1F, (instr >> 20) & 0x1F, int32(raw)
}

// 指令编码，用于构造测试程序

// EncodeR R型指令
func EncodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeI I型指令
func EncodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm&0xFFF) << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeS S型指令
func EncodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm & 0xFFF)
	return ((u >> 5) << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | ((u & 0x1F) << 7) | opcode
}

// EncodeB B型指令
func EncodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (((u >> 12) & 0x1) << 31) | (((u >> 5) & 0x3F) << 25) |
		(rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
		(((u >> 1) & 0xF) << 8) | (((u >> 11) & 0x1) << 7) | opcode
}

// EncodeU U型指令
func EncodeU(opcode, rd uint32, imm uint32) uint32 {
	return (imm & 0xFFFFF000) | (rd << 7) | opcode
}

// EncodeJ J型指令
func EncodeJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	return (((u >> 20) & 0x1) << 31) | (((u >> 1) & 0x3FF) << 21) |
		(((u >> 11) & 0x1) << 20) | (((u >> 12) & 0xFF) << 12) |
		(rd << 7) | opcode
}

// 常用指令简写

// ADDI rd = rs1 + imm
func ADDI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opLoadImm, rd, 0, rs1, imm) }

// ADD rd = rs1 + rs2
func ADD(rd, rs1, rs2 uint32) uint32 { return EncodeR(opReg, rd, 0, rs1, rs2, 0) }

// LW rd = mem[rs1+imm]
func LW(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opLoad, rd, 2, rs1, imm) }

// SW mem[rs1+imm] = rs2
func SW(rs1, rs2 uint32, imm int32) uint32 { return EncodeS(opStore, 2, rs1, rs2, imm) }

// BEQ 相等跳转
func BEQ(rs1, rs2 uint32, imm int32) uint32 { return EncodeB(opBranch, 0, rs1, rs2, imm) }

// BNE 不等跳转
func BNE(rs1, rs2 uint32, imm int32) uint32 { return EncodeB(opBranch, 1, rs1, rs2, imm) }

// JAL 跳转并链接
func JAL(rd uint32, imm int32) uint32 { return EncodeJ(opJAL, rd, imm) }

// LUI 加载高位立即数
func LUI(rd, imm uint32) uint32 { return EncodeU(opLUI, rd, imm) }

// ECALL 系统调用，功能号在 a7
func ECALL() uint32 { return opSystem }

// EBREAK 断点（按停机处理）
func EBREAK() uint32 { return 1<<20 | opSystem }
